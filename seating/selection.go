package seating

import "slices"

// CanSelect reports whether a viewer may change a selection. Anonymous
// viewers see the map read-only.
func CanSelect(isAuthenticated bool) bool {
	return isAuthenticated
}

// Selection is the set of seats a viewer has picked on one seat map. The zero
// value is ready to use.
type Selection struct {
	selected map[Key]Seat
}

func NewSelection() *Selection {
	return &Selection{selected: map[Key]Seat{}}
}

// Toggle flips the seat's membership. It does nothing and returns false when
// the viewer cannot select, the seat is booked, or the seat is not on the map.
func (s *Selection) Toggle(seat Seat, seatMap SeatMap, isAuthenticated bool) bool {
	if !CanSelect(isAuthenticated) {
		return false
	}
	if !seatMap.Contains(seat) || seatMap.IsBooked(seat) {
		return false
	}
	if s.selected == nil {
		s.selected = map[Key]Seat{}
	}
	key := seat.Key()
	if _, ok := s.selected[key]; ok {
		delete(s.selected, key)
	} else {
		s.selected[key] = seat
	}
	return true
}

func (s *Selection) Has(seat Seat) bool {
	_, ok := s.selected[seat.Key()]
	return ok
}

func (s *Selection) Len() int {
	return len(s.selected)
}

func (s *Selection) Empty() bool {
	return len(s.selected) == 0
}

// Selected returns the picked seats in row-major order.
func (s *Selection) Selected() []Seat {
	seats := make([]Seat, 0, len(s.selected))
	for _, seat := range s.selected {
		seats = append(seats, seat)
	}
	slices.SortFunc(seats, func(a, b Seat) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Number - b.Number
	})
	return seats
}

func (s *Selection) Keys() []Key {
	seats := s.Selected()
	keys := make([]Key, 0, len(seats))
	for _, seat := range seats {
		keys = append(keys, seat.Key())
	}
	return keys
}

func (s *Selection) Clear() {
	clear(s.selected)
}

// Retain drops seats that are booked or outside seatMap. Call it after the
// seat map has been refetched. It returns the number of seats dropped.
func (s *Selection) Retain(seatMap SeatMap) int {
	dropped := 0
	for key, seat := range s.selected {
		if !seatMap.Contains(seat) || seatMap.IsBooked(seat) {
			delete(s.selected, key)
			dropped++
		}
	}
	return dropped
}

// Clone returns an independent copy, for handing to a call that may clear it
// while the original is still being read.
func (s *Selection) Clone() *Selection {
	out := NewSelection()
	for key, seat := range s.selected {
		out.selected[key] = seat
	}
	return out
}
