package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a lowercase 26-char ULID. IDs generated in the same process are
// strictly increasing, so they sort by creation time.
func New() string {
	return NewAt(time.Now().UTC())
}

// NewAt is New with an explicit timestamp.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Valid reports whether s is a well-formed ULID (either case).
func Valid(s string) bool {
	if len(s) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(s))
	return err == nil
}
