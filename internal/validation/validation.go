package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/fleetcal/internal/constants"
	ferrors "github.com/julianstephens/fleetcal/internal/errors"
	"github.com/julianstephens/fleetcal/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingClient       ConflictType = "missing_client"
	ConflictMissingUnits        ConflictType = "missing_units"
	ConflictMissingVehicle      ConflictType = "missing_vehicle"
	ConflictTooManyDrivers      ConflictType = "too_many_drivers"
	ConflictInvalidDateTime     ConflictType = "invalid_datetime"
	ConflictVehicleDoubleBooked ConflictType = "vehicle_double_booked"
)

// Conflict represents a problem detected in one or more service records
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD format (if applicable)
	Items       []string // Client or vehicle names involved
	ServiceIDs  []string // IDs of services involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Err returns nil when there are no conflicts, otherwise an Invalid error
// listing them.
func (vr *ValidationResult) Err(op string) error {
	if !vr.HasConflicts() {
		return nil
	}
	msgs := make([]string, len(vr.Conflicts))
	for i, c := range vr.Conflicts {
		msgs[i] = c.Description
	}
	return ferrors.E(ferrors.Invalid, op, fmt.Errorf("%s", strings.Join(msgs, "; ")))
}

// Validator checks service records before they are written
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

func label(r models.ServiceRecord) string {
	if r.ClientName != "" {
		return r.ClientName
	}
	if r.ID != "" {
		return r.ID
	}
	return "new service"
}

// ValidateService checks a single record.
func (v *Validator) ValidateService(r models.ServiceRecord) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	name := label(r)
	date := r.Key().String()

	add := func(t ConflictType, desc string) {
		c := Conflict{
			Type:        t,
			Description: desc,
			Date:        date,
			Items:       []string{name},
		}
		if r.ID != "" {
			c.ServiceIDs = []string{r.ID}
		}
		result.Conflicts = append(result.Conflicts, c)
	}

	if strings.TrimSpace(r.ClientName) == "" {
		add(ConflictMissingClient, "Client name is required")
	}

	if !r.Key().Valid() {
		add(ConflictInvalidDateTime, fmt.Sprintf("Service \"%s\" has an invalid date: %s", name, date))
	}

	if r.ScheduledTime != "" && !isValidTimeFormat(r.ScheduledTime) {
		add(ConflictInvalidDateTime, fmt.Sprintf("Service \"%s\" has invalid time: %s (expected HH:MM)", name, r.ScheduledTime))
	}

	if len(r.Units) == 0 {
		add(ConflictMissingUnits, fmt.Sprintf("Service \"%s\" needs at least one unit", name))
	}
	for i, u := range r.Units {
		if strings.TrimSpace(u.VehicleID) == "" {
			add(ConflictMissingVehicle, fmt.Sprintf("Service \"%s\" unit %d has no vehicle", name, i+1))
		}
		if len(u.Drivers) > constants.MaxDriversPerUnit {
			add(ConflictTooManyDrivers, fmt.Sprintf("Service \"%s\" unit %d has %d drivers (max %d)",
				name, i+1, len(u.Drivers), constants.MaxDriversPerUnit))
		}
	}

	return result
}

// ValidateServices checks every record and reports vehicles assigned to two
// services on the same day at the same time.
func (v *Validator) ValidateServices(records []models.ServiceRecord) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	for _, r := range records {
		single := v.ValidateService(r)
		result.Conflicts = append(result.Conflicts, single.Conflicts...)
	}

	type slot struct {
		key     models.DateKey
		time    string
		vehicle string
	}
	booked := make(map[slot][]models.ServiceRecord)
	for _, r := range records {
		if r.ScheduledTime == "" {
			continue
		}
		for _, u := range r.Units {
			vehicle := strings.TrimSpace(u.VehicleID)
			if vehicle == "" {
				continue
			}
			s := slot{key: r.Key(), time: r.ScheduledTime, vehicle: vehicle}
			booked[s] = append(booked[s], r)
		}
	}

	slots := make([]slot, 0, len(booked))
	for s, rs := range booked {
		if len(rs) > 1 {
			slots = append(slots, s)
		}
	}
	// Stable report order: by date, time, vehicle.
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].key != slots[j].key {
			return slots[i].key.Before(slots[j].key)
		}
		if slots[i].time != slots[j].time {
			return slots[i].time < slots[j].time
		}
		return slots[i].vehicle < slots[j].vehicle
	})

	for _, s := range slots {
		rs := booked[s]
		ids := make([]string, len(rs))
		clients := make([]string, len(rs))
		for i, r := range rs {
			ids[i] = r.ID
			clients[i] = r.ClientName
		}
		desc := fmt.Sprintf("Vehicle %s is booked %d times on %s at %s (%s)",
			s.vehicle, len(rs), s.key, s.time, strings.Join(clients, ", "))
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictVehicleDoubleBooked,
			Description: desc,
			Date:        s.key.String(),
			Items:       []string{s.vehicle},
			ServiceIDs:  ids,
		})
	}

	return result
}

func isValidTimeFormat(timeStr string) bool {
	_, err := time.Parse(constants.TimeFormat, timeStr)
	return err == nil
}
