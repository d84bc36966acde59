package models

import "strings"

// UnitAssignment is one vehicle sent on a service together with its drivers.
// Drivers holds up to three slots; blank slots carry no meaning.
type UnitAssignment struct {
	VehicleID string   `json:"vehicle_id"`
	Drivers   []string `json:"drivers"`
}

// ActiveDrivers returns the non-blank driver names in slot order.
func (u UnitAssignment) ActiveDrivers() []string {
	var drivers []string
	for _, d := range u.Drivers {
		if strings.TrimSpace(d) != "" {
			drivers = append(drivers, d)
		}
	}
	return drivers
}

type ServiceRecord struct {
	ID            string           `json:"id,omitempty"`
	ClientName    string           `json:"client_name"`
	ServiceName   string           `json:"service_name"`
	Units         []UnitAssignment `json:"units"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	ScheduledTime string           `json:"scheduled_time,omitempty"` // HH:MM format
	Notes         string           `json:"notes,omitempty"`
	Completed     bool             `json:"completed"`
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	Day           int              `json:"day"`
}

// Key derives the bucket of the record from its own date fields.
func (r ServiceRecord) Key() DateKey {
	return DateKey{Year: r.Year, Month: r.Month, Day: r.Day}
}

// IsDraft reports whether the record has not been persisted yet.
func (r ServiceRecord) IsDraft() bool {
	return r.ID == ""
}

// SetDate moves the record to the given day.
func (r *ServiceRecord) SetDate(k DateKey) {
	r.Year, r.Month, r.Day = k.Year, k.Month, k.Day
}

// Clone returns a copy that shares no slices with r.
func (r ServiceRecord) Clone() ServiceRecord {
	out := r
	if r.Units != nil {
		out.Units = make([]UnitAssignment, len(r.Units))
		for i, u := range r.Units {
			out.Units[i] = UnitAssignment{VehicleID: u.VehicleID}
			if u.Drivers != nil {
				out.Units[i].Drivers = append([]string(nil), u.Drivers...)
			}
		}
	}
	return out
}
