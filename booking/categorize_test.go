package booking

import (
	"testing"
	"time"

	"cinetix-cli/model"
)

func sampleBookings(now time.Time) []model.Booking {
	return []model.Booking{
		{Id: "unpaid", SessionId: 1, BookedAt: now.Add(-time.Minute)},
		{Id: "future", SessionId: 2, IsPaid: true, BookedAt: now.Add(time.Hour)},
		{Id: "past", SessionId: 3, IsPaid: true, BookedAt: now.Add(-time.Hour)},
	}
}

func ids(bookings []model.Booking) []string {
	out := make([]string, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Id)
	}
	return out
}

func TestCategorize_OneOfEach(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Categorize(sampleBookings(now), now, NewExpiredSet())

	if len(got.Unpaid) != 1 || len(got.Future) != 1 || len(got.Past) != 1 {
		t.Fatalf("expected 1/1/1, got %d/%d/%d", len(got.Unpaid), len(got.Future), len(got.Past))
	}
	if got.Unpaid[0].Id != "unpaid" || got.Future[0].Id != "future" || got.Past[0].Id != "past" {
		t.Fatalf("unexpected buckets: %v %v %v", ids(got.Unpaid), ids(got.Future), ids(got.Past))
	}
}

func TestCategorize_BookedAtEqualNowIsPast(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Categorize([]model.Booking{{Id: "edge", IsPaid: true, BookedAt: now}}, now, nil)
	if len(got.Past) != 1 || len(got.Future) != 0 {
		t.Fatalf("expected booking at now to be past, got %+v", got)
	}
}

func TestCategorize_DisjointAndCoversNonExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bookings := append(sampleBookings(now),
		model.Booking{Id: "unpaid-2", BookedAt: now.Add(-2 * time.Minute)},
		model.Booking{Id: "gone", BookedAt: now.Add(-20 * time.Minute)},
	)
	expired := NewExpiredSet()
	expired.Add("gone")

	got := Categorize(bookings, now, expired)

	seen := map[string]int{}
	for _, bucket := range [][]model.Booking{got.Unpaid, got.Future, got.Past} {
		for _, b := range bucket {
			seen[b.Id]++
		}
	}
	for _, b := range bookings {
		want := 1
		if b.Id == "gone" {
			want = 0
		}
		if seen[b.Id] != want {
			t.Fatalf("expected %s to appear %d times, got %d", b.Id, want, seen[b.Id])
		}
	}
	if got.Len() != len(bookings)-1 {
		t.Fatalf("expected %d bookings, got %d", len(bookings)-1, got.Len())
	}
	if order := ids(got.Unpaid); order[0] != "unpaid" || order[1] != "unpaid-2" {
		t.Fatalf("expected server order in unpaid, got %v", order)
	}
}

func TestCategorizer_MemoizesIdenticalInputs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bookings := sampleBookings(now)
	expired := NewExpiredSet()

	var c Categorizer
	first := c.Categorize(bookings, 1, now, expired)
	second := c.Categorize(bookings, 1, now, expired)
	if &first.Unpaid[0] != &second.Unpaid[0] {
		t.Fatal("expected identical inputs to reuse the cached buckets")
	}

	expired.Add("unpaid")
	third := c.Categorize(bookings, 1, now, expired)
	if len(third.Unpaid) != 0 {
		t.Fatalf("expected expired change to recompute, got %v", ids(third.Unpaid))
	}

	later := c.Categorize(bookings, 1, now.Add(2*time.Hour), expired)
	if len(later.Future) != 0 || len(later.Past) != 2 {
		t.Fatalf("expected now change to recompute, got %+v", later)
	}

	bumped := c.Categorize(bookings[:1], 2, now.Add(2*time.Hour), expired)
	if bumped.Len() != 0 {
		t.Fatalf("expected revision change to recompute, got %+v", bumped)
	}
}

func TestExpiredSet(t *testing.T) {
	s := NewExpiredSet()
	if !s.Add("a") || s.Add("a") {
		t.Fatal("expected Add to report only the first insert")
	}
	s.Add("c")
	s.Add("b")
	if got := s.IDs(); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected ids: %v", got)
	}
	rev := s.Revision()
	s.Clear()
	if s.Len() != 0 || s.Revision() == rev {
		t.Fatal("expected Clear to empty the set and bump the revision")
	}
	rev = s.Revision()
	s.Clear()
	if s.Revision() != rev {
		t.Fatal("expected clearing an empty set to keep the revision")
	}

	var nilSet *ExpiredSet
	if nilSet.Has("a") || nilSet.Len() != 0 {
		t.Fatal("expected nil set to be empty")
	}
}
