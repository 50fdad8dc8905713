package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// MinAt returns the smallest ULID for the given time: timestamp bits set,
// entropy all zero. Comparing a real ULID against it is a creation-time
// comparison, which the attempt log relies on for sort-key range conditions.
func MinAt(t time.Time) string {
	var u ulid.ULID
	_ = u.SetTime(ulid.Timestamp(t))
	return u.String()
}
