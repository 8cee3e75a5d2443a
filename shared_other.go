//go:build !linux

package rwlock

import "github.com/thetarby/rwlock/internal/primitive"

func newSharedHost(mem []byte, init bool) (primitive.Host, error) {
	return nil, primitive.ErrUnsupported
}
