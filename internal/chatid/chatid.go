// Package chatid generates prefixed identifiers for chats, messages and media.
//
// Identifiers are monotonic ULIDs, so two ids minted within the same
// millisecond are still distinct and still sort in creation order.
package chatid

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind prefixes. The prefix makes an id self-describing in logs and storage keys.
const (
	PrefixChat  = "chat"
	PrefixMsg   = "msg"
	PrefixMedia = "media"
)

var (
	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
)

func init() {
	source := rand.NewSource(time.Now().UnixNano())
	entropy = ulid.Monotonic(rand.New(source), 0)
}

// New returns a fresh identifier of the form {prefix}-{ulid}.
func New(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return prefix + "-" + strings.ToLower(id.String())
}

// NewChat returns a fresh chat id.
func NewChat() string { return New(PrefixChat) }

// NewMessage returns a fresh message id.
func NewMessage() string { return New(PrefixMsg) }

// NewMedia returns a fresh media id.
func NewMedia() string { return New(PrefixMedia) }

// IsValid reports whether value is a well-formed id for the given prefix.
func IsValid(prefix, value string) bool {
	_, err := Parse(prefix, value)
	return err == nil
}

// Parse strips the prefix and returns the embedded ULID.
func Parse(prefix, value string) (ulid.ULID, error) {
	rest, found := strings.CutPrefix(value, prefix+"-")
	if !found {
		return ulid.ULID{}, fmt.Errorf("id %q missing %q prefix", value, prefix)
	}
	return ulid.Parse(strings.ToUpper(rest))
}

// Timestamp returns the creation time embedded in an id, or the zero time
// when the id does not parse.
func Timestamp(prefix, value string) time.Time {
	id, err := Parse(prefix, value)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(id.Time())
}
