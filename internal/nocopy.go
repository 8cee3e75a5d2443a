package internal

// NoCopy may be added to structs which must not be copied after the first use.
// The -copylocks checker of `go vet` reports copies.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type NoCopy struct{}

// Lock is a no-op used by -copylocks.
func (*NoCopy) Lock() {}

// Unlock is a no-op used by -copylocks.
func (*NoCopy) Unlock() {}
