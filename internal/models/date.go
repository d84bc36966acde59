package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/fleetcal/internal/constants"
)

// DateKey identifies one calendar day. It is comparable and is used directly
// as a map key, so two equal dates always address the same bucket.
type DateKey struct {
	Year  int
	Month int
	Day   int
}

// KeyOf returns the key of the calendar day t falls on.
func KeyOf(t time.Time) DateKey {
	return DateKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseDateKey parses a YYYY-MM-DD string.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return KeyOf(t), nil
}

// Time returns midnight of the day in loc.
func (k DateKey) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, loc)
}

// Valid reports whether the key names a real calendar day.
func (k DateKey) Valid() bool {
	if k.Month < 1 || k.Month > 12 || k.Day < 1 {
		return false
	}
	return KeyOf(k.Time(time.UTC)) == k
}

// Before orders keys chronologically.
func (k DateKey) Before(o DateKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

// RecordsByDate buckets service records by day. Each bucket keeps the order in
// which its records were first observed. A missing key and an empty bucket mean
// the same thing.
type RecordsByDate map[DateKey][]ServiceRecord

// Get returns the bucket for k, or nil.
func (m RecordsByDate) Get(k DateKey) []ServiceRecord {
	if m == nil {
		return nil
	}
	return m[k]
}

// Count returns the number of records across all buckets.
func (m RecordsByDate) Count() int {
	n := 0
	for _, bucket := range m {
		n += len(bucket)
	}
	return n
}

// Keys returns the keys in chronological order.
func (m RecordsByDate) Keys() []DateKey {
	keys := make([]DateKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
	return keys
}

// Clone deep-copies the mapping so the copy can be handed to readers.
func (m RecordsByDate) Clone() RecordsByDate {
	out := make(RecordsByDate, len(m))
	for k, bucket := range m {
		cp := make([]ServiceRecord, len(bucket))
		for i, r := range bucket {
			cp[i] = r.Clone()
		}
		out[k] = cp
	}
	return out
}

// Find locates the record with the given id.
func (m RecordsByDate) Find(id string) (ServiceRecord, DateKey, bool) {
	for k, bucket := range m {
		for _, r := range bucket {
			if r.ID == id {
				return r, k, true
			}
		}
	}
	return ServiceRecord{}, DateKey{}, false
}
