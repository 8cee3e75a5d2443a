package threadid

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGID(t *testing.T) {
	is := assert.New(t)

	is.Equal(uint64(123), parseGID([]byte("goroutine 123 [running]:\nmain.main()")))
	is.Equal(uint64(1), parseGID([]byte("goroutine 1 [running]:")))
	is.Equal(uint64(0), parseGID([]byte("gorout")))
	is.Equal(uint64(0), parseGID([]byte("thread 12 [running]:")))
	is.Equal(uint64(0), parseGID(nil))
}

func TestCurrent(t *testing.T) {
	is := assert.New(t)

	self := Current()
	is.False(self.IsZero())
	is.Equal(uint32(os.Getpid()), self.Process)
	is.NotZero(self.Goroutine)
	is.Equal(self, Current(), "identity must be stable within a goroutine")

	const n = 16
	ids := make([]ID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = Current()
		}(i)
	}
	wg.Wait()

	seen := map[ID]bool{self: true}
	for _, id := range ids {
		is.False(seen[id], "goroutine ids must be unique: %v", id)
		seen[id] = true
	}
}

func TestString(t *testing.T) {
	is := assert.New(t)

	is.Equal("none", ID{}.String())
	is.Equal("42/7", ID{Process: 42, Goroutine: 7}.String())
}
