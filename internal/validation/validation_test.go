package validation

import (
	"strings"
	"testing"

	"github.com/julianstephens/fleetcal/internal/constants"
	ferrors "github.com/julianstephens/fleetcal/internal/errors"
	"github.com/julianstephens/fleetcal/internal/models"
)

func validService() models.ServiceRecord {
	return models.ServiceRecord{
		ID:            "svc-1",
		ClientName:    "Acme",
		ServiceName:   "Traslado",
		Units:         []models.UnitAssignment{{VehicleID: "BUS-1", Drivers: []string{"Ana", "", ""}}},
		ScheduledTime: "08:30",
		Year:          2025,
		Month:         3,
		Day:           10,
	}
}

func conflictTypes(result ValidationResult) []ConflictType {
	types := make([]ConflictType, len(result.Conflicts))
	for i, c := range result.Conflicts {
		types[i] = c.Type
	}
	return types
}

func TestValidateService(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *models.ServiceRecord)
		want   []ConflictType
	}{
		{
			name:   "valid",
			modify: func(r *models.ServiceRecord) {},
			want:   []ConflictType{},
		},
		{
			name:   "blank time allowed",
			modify: func(r *models.ServiceRecord) { r.ScheduledTime = "" },
			want:   []ConflictType{},
		},
		{
			name:   "missing client",
			modify: func(r *models.ServiceRecord) { r.ClientName = "  " },
			want:   []ConflictType{ConflictMissingClient},
		},
		{
			name:   "invalid date",
			modify: func(r *models.ServiceRecord) { r.Month, r.Day = 2, 30 },
			want:   []ConflictType{ConflictInvalidDateTime},
		},
		{
			name:   "invalid time",
			modify: func(r *models.ServiceRecord) { r.ScheduledTime = "25:00" },
			want:   []ConflictType{ConflictInvalidDateTime},
		},
		{
			name:   "no units",
			modify: func(r *models.ServiceRecord) { r.Units = nil },
			want:   []ConflictType{ConflictMissingUnits},
		},
		{
			name: "unit without vehicle",
			modify: func(r *models.ServiceRecord) {
				r.Units = append(r.Units, models.UnitAssignment{Drivers: []string{"Luis"}})
			},
			want: []ConflictType{ConflictMissingVehicle},
		},
		{
			name: "too many drivers",
			modify: func(r *models.ServiceRecord) {
				r.Units[0].Drivers = []string{"a", "b", "c", "d"}
			},
			want: []ConflictType{ConflictTooManyDrivers},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validService()
			tt.modify(&r)

			result := New().ValidateService(r)
			got := conflictTypes(result)
			if len(got) != len(tt.want) {
				t.Fatalf("conflicts = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("conflict[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateServices_DoubleBooking(t *testing.T) {
	a := validService()
	b := validService()
	b.ID = "svc-2"
	b.ClientName = "Beta"
	c := validService()
	c.ID = "svc-3"
	c.ScheduledTime = "10:00"

	result := New().ValidateServices([]models.ServiceRecord{a, b, c})

	var double []Conflict
	for _, conflict := range result.Conflicts {
		if conflict.Type == ConflictVehicleDoubleBooked {
			double = append(double, conflict)
		}
	}
	if len(double) != 1 {
		t.Fatalf("Expected 1 double booking, got %d: %s", len(double), result.FormatReport())
	}
	if len(double[0].ServiceIDs) != 2 || double[0].ServiceIDs[0] != "svc-1" || double[0].ServiceIDs[1] != "svc-2" {
		t.Errorf("Unexpected service ids: %v", double[0].ServiceIDs)
	}
	if double[0].Date != "2025-03-10" {
		t.Errorf("Date = %s, want 2025-03-10", double[0].Date)
	}
}

func TestFormatReport(t *testing.T) {
	empty := ValidationResult{}
	if empty.FormatReport() != "No conflicts detected." {
		t.Errorf("Unexpected empty report: %q", empty.FormatReport())
	}

	r := validService()
	r.ClientName = ""
	result := New().ValidateService(r)
	report := result.FormatReport()
	if !strings.Contains(report, "Client name is required") {
		t.Errorf("Report missing conflict: %q", report)
	}
}

func TestErr(t *testing.T) {
	ok := New().ValidateService(validService())
	if err := ok.Err("create"); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}

	r := validService()
	r.Units[0].Drivers = make([]string, constants.MaxDriversPerUnit+1)
	bad := New().ValidateService(r)
	err := bad.Err("create")
	if !ferrors.Is(err, ferrors.Invalid) {
		t.Errorf("Expected Invalid error, got %v", err)
	}
}
