package booking

import (
	"time"

	"cinetix-cli/model"
)

type Buckets struct {
	Unpaid []model.Booking
	Future []model.Booking
	Past   []model.Booking
}

func (b Buckets) Len() int {
	return len(b.Unpaid) + len(b.Future) + len(b.Past)
}

// Categorize splits bookings not in expired into unpaid, future and past,
// keeping server order within each bucket.
//
// Future and past are decided by BookedAt, the booking creation time, not by
// the start time of the booked session. A booking made today for next week's
// show therefore lands in Past as soon as its creation time is behind now.
func Categorize(bookings []model.Booking, now time.Time, expired *ExpiredSet) Buckets {
	var out Buckets
	for _, b := range bookings {
		if expired.Has(b.Id) {
			continue
		}
		switch {
		case !b.IsPaid:
			out.Unpaid = append(out.Unpaid, b)
		case b.BookedAt.After(now):
			out.Future = append(out.Future, b)
		default:
			out.Past = append(out.Past, b)
		}
	}
	return out
}

// Categorizer caches the last Categorize result keyed on the collection
// revision, now, and the expired set revision.
type Categorizer struct {
	valid           bool
	revision        uint64
	now             time.Time
	expired         *ExpiredSet
	expiredRevision uint64
	buckets         Buckets
}

func (c *Categorizer) Categorize(bookings []model.Booking, revision uint64, now time.Time, expired *ExpiredSet) Buckets {
	if c.valid &&
		c.revision == revision &&
		c.now.Equal(now) &&
		c.expired == expired &&
		c.expiredRevision == expired.Revision() {
		return c.buckets
	}
	c.buckets = Categorize(bookings, now, expired)
	c.valid = true
	c.revision = revision
	c.now = now
	c.expired = expired
	c.expiredRevision = expired.Revision()
	return c.buckets
}
