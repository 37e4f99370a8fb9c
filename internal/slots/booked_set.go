package slots

import (
	"sort"

	"cloud.google.com/go/civil"
)

// BookedSet is the locally mirrored set of reserved keys. The zero value and
// a nil *BookedSet are empty. Not safe for concurrent use.
type BookedSet struct {
	keys map[Key]struct{}
}

// NewBookedSet builds a set from already normalized keys.
func NewBookedSet(keys ...Key) *BookedSet {
	s := &BookedSet{keys: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// ParseBookedSet normalizes raw upstream records. Records that cannot match
// any bookable key are returned as errors alongside the set.
func ParseBookedSet(records []string) (*BookedSet, []error) {
	s := NewBookedSet()
	var skipped []error
	for _, raw := range records {
		k, err := ParseRecord(raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		s.keys[k] = struct{}{}
	}
	return s, skipped
}

// Contains reports whether k is booked.
func (s *BookedSet) Contains(k Key) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[k]
	return ok
}

// IsBooked reports whether slot id on day is taken.
func (s *BookedSet) IsBooked(day Day, id ID) bool {
	return s.Contains(KeyFor(day, id))
}

// DayFullyBooked reports whether every catalogue slot on date is taken.
func (s *BookedSet) DayFullyBooked(date civil.Date) bool {
	for _, slot := range catalog {
		if !s.Contains(Key{Date: date, Slot: slot.ID}) {
			return false
		}
	}
	return true
}

// MarkUnavailable records k as booked without consulting the backend.
func (s *BookedSet) MarkUnavailable(k Key) {
	if s.keys == nil {
		s.keys = make(map[Key]struct{})
	}
	s.keys[k] = struct{}{}
}

// Len returns the number of booked keys.
func (s *BookedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the booked keys ordered by date then slot id.
func (s *BookedSet) Keys() []Key {
	if s == nil {
		return nil
	}
	out := make([]Key, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}
