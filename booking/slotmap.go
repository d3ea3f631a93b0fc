package booking

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Slot keys follow the conventions of the surrounding system: dates are
// "DD_MM_YYYY" tokens without zero padding, times are 24-hour "HH:MM".
var (
	dateKeyRegex = regexp.MustCompile(`^[0-9]{1,2}_[0-9]{1,2}_[0-9]{4}$`)
	timeKeyRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// ValidDateKey reports whether s is a well-formed date key.
func ValidDateKey(s string) bool {
	return dateKeyRegex.MatchString(s)
}

// ValidTimeKey reports whether s is a well-formed time key.
func ValidTimeKey(s string) bool {
	return timeKeyRegex.MatchString(s)
}

// SlotMap is one doctor's reservation state: date key to the time keys
// already taken on that date. It is a plain value with no locking of its
// own; durable mutation goes through the reservation store, which makes
// reserve-or-fail atomic at the storage layer.
type SlotMap map[string][]string

// NewSlotMap returns an empty, non-nil slot map.
func NewSlotMap() SlotMap {
	return make(SlotMap)
}

// IsFree reports whether no reservation exists for (dateKey, timeKey).
func (m SlotMap) IsFree(dateKey, timeKey string) bool {
	for _, t := range m[dateKey] {
		if t == timeKey {
			return false
		}
	}
	return true
}

// Reserve inserts timeKey under dateKey, creating the day entry when
// absent. It fails with ErrSlotUnavailable when the slot is already taken.
func (m SlotMap) Reserve(dateKey, timeKey string) error {
	if !ValidDateKey(dateKey) || !ValidTimeKey(timeKey) {
		return ErrInvalidSlotKey
	}
	if !m.IsFree(dateKey, timeKey) {
		return ErrSlotUnavailable
	}
	m[dateKey] = append(m[dateKey], timeKey)
	return nil
}

// Release removes timeKey from dateKey's entry. Releasing a slot that is
// not reserved is a no-op, so retries and racing cancellations stay safe.
func (m SlotMap) Release(dateKey, timeKey string) {
	times := m[dateKey]
	for i, t := range times {
		if t == timeKey {
			m[dateKey] = append(times[:i], times[i+1:]...)
			return
		}
	}
}

// FreeWithin returns the time keys from grid that are not reserved on
// dateKey, sorted ascending.
func (m SlotMap) FreeWithin(dateKey string, grid []string) []string {
	free := make([]string, 0, len(grid))
	for _, t := range grid {
		if m.IsFree(dateKey, t) {
			free = append(free, t)
		}
	}
	sort.Strings(free)
	return free
}

// Grid enumerates the bookable time keys between start and end (both
// "HH:MM", end inclusive) in steps of stepMinutes.
func Grid(start, end string, stepMinutes int) ([]string, error) {
	from, err := time.Parse("15:04", start)
	if err != nil {
		return nil, fmt.Errorf("invalid grid start %q: %w", start, err)
	}
	to, err := time.Parse("15:04", end)
	if err != nil {
		return nil, fmt.Errorf("invalid grid end %q: %w", end, err)
	}
	if stepMinutes <= 0 || !from.Before(to) {
		return nil, fmt.Errorf("invalid grid %s-%s step %d", start, end, stepMinutes)
	}

	var slots []string
	for cur := from; !cur.After(to); cur = cur.Add(time.Duration(stepMinutes) * time.Minute) {
		slots = append(slots, cur.Format("15:04"))
	}
	return slots, nil
}
