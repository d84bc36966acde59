// Package filter derives client and month restricted views of a snapshot.
package filter

import (
	"strings"

	"github.com/julianstephens/fleetcal/internal/models"
)

// Criteria restricts a view. An empty ClientSubstring and a zero Month match
// everything. ClientSubstring is matched as given; callers trim user input.
type Criteria struct {
	ClientSubstring string
	Month           int
}

// IsZero reports whether the criteria let every record through.
func (c Criteria) IsZero() bool {
	return c.ClientSubstring == "" && c.Month == 0
}

// Matches reports whether r satisfies both predicates.
func (c Criteria) Matches(r models.ServiceRecord) bool {
	if c.Month != 0 && r.Month != c.Month {
		return false
	}
	needle := strings.ToLower(c.ClientSubstring)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.ClientName), needle)
}

// Apply returns a new mapping holding, for every key of snapshot, the records
// matching c. Keys whose bucket filters down to nothing are kept with an empty
// slice. snapshot is never modified.
func Apply(snapshot models.RecordsByDate, c Criteria) models.RecordsByDate {
	out := make(models.RecordsByDate, len(snapshot))
	for k, bucket := range snapshot {
		kept := make([]models.ServiceRecord, 0, len(bucket))
		for _, r := range bucket {
			if c.Matches(r) {
				kept = append(kept, r.Clone())
			}
		}
		out[k] = kept
	}
	return out
}
