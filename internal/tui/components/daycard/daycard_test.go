package daycard

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/fleetcal/internal/models"
)

var monday = models.Day{Day: 4, Month: 5, Year: 2026, Weekday: time.Monday, WeekdayName: "lunes", WeekdayShort: "lun"}

func TestEntry(t *testing.T) {
	tests := []struct {
		name    string
		record  models.ServiceRecord
		want    []string
		notWant []string
	}{
		{
			name: "hides blank driver slots",
			record: models.ServiceRecord{
				ClientName:    "Colegio Norte",
				ScheduledTime: "09:00",
				Units:         []models.UnitAssignment{{VehicleID: "M-07", Drivers: []string{"Carmen", "", "Luis"}}},
				Origin:        "Sevilla",
				Destination:   "Cádiz",
			},
			want:    []string{"○ 09:00 Colegio Norte", "M-07 · Carmen, Luis", "Sevilla → Cádiz"},
			notWant: []string{"Carmen, ,"},
		},
		{
			name: "vehicle without drivers",
			record: models.ServiceRecord{
				ClientName: "Hotel Sur",
				Units:      []models.UnitAssignment{{VehicleID: "BUS-12", Drivers: []string{"", ""}}},
				Completed:  true,
			},
			want:    []string{"✓ Hotel Sur", "  BUS-12"},
			notWant: []string{"·", "→"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Entry(tt.record, 40)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Entry() missing %q:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Entry() contains %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestEntry_Truncates(t *testing.T) {
	r := models.ServiceRecord{ClientName: "Asociación Cultural de Vecinos del Barrio Antiguo"}
	got := Entry(r, 20)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Entry() = %q, want truncated line", got)
	}
}

func TestCard_Render(t *testing.T) {
	empty := Card{Day: monday, Today: true, Width: 32}.Render()
	for _, want := range []string{"lunes 4 de mayo", "hoy", "Sin servicios"} {
		if !strings.Contains(empty, want) {
			t.Errorf("empty card missing %q:\n%s", want, empty)
		}
	}

	card := Card{
		Day:      monday,
		Records:  []models.ServiceRecord{{ClientName: "Colegio Norte"}, {ClientName: "Hotel Sur"}},
		Current:  true,
		Selected: 1,
		Width:    32,
	}.Render()
	if strings.Contains(card, "Sin servicios") || strings.Contains(card, "hoy") {
		t.Errorf("unexpected content:\n%s", card)
	}
	if !strings.Contains(card, "▸ ○ Hotel Sur") {
		t.Errorf("cursor not on the selected record:\n%s", card)
	}
	if strings.Contains(card, "▸ ○ Colegio Norte") {
		t.Errorf("cursor on the wrong record:\n%s", card)
	}
}
