package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes used for record identifiers.
const (
	PrefixCrossing    = "crs"
	PrefixHotelStay   = "hst"
	PrefixTask        = "tsk"
	PrefixTransaction = "txn"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a ULID stamped at the current time. IDs minted by one process
// sort in creation order.
func New() string {
	return At(time.Now())
}

// At returns a ULID carrying the given timestamp.
func At(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// WithPrefix returns "<prefix>_<ulid>".
func WithPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return New()
	}
	return prefix + "_" + New()
}

// Time extracts the timestamp embedded in an identifier produced by this
// package. The prefix, if any, is ignored.
func Time(id string) (time.Time, bool) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()).UTC(), true
}
