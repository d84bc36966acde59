// Package export writes a set of service records to spreadsheet formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/models"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "xlsx" || strings.HasSuffix(s, ".xlsx"):
		return FormatXLSX, nil
	case s == "csv" || strings.HasSuffix(s, ".csv"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q (expected xlsx or csv)", s)
}

const sheetName = "Servicios"

var Header = []string{
	"Fecha", "Día", "Hora", "Cliente", "Servicio", "Unidades", "Conductores",
	"Origen", "Destino", "Notas", "Completado",
}

// Rows flattens records into one row per service, days in chronological
// order and services in bucket order.
func Rows(records models.RecordsByDate) [][]string {
	var rows [][]string
	for _, k := range records.Keys() {
		weekday := calendar.WeekdayName(k.Time(time.UTC).Weekday())
		for _, r := range records[k] {
			rows = append(rows, []string{
				k.String(),
				weekday,
				r.ScheduledTime,
				r.ClientName,
				r.ServiceName,
				vehicles(r.Units),
				drivers(r.Units),
				r.Origin,
				r.Destination,
				r.Notes,
				completed(r.Completed),
			})
		}
	}
	return rows
}

func vehicles(units []models.UnitAssignment) string {
	ids := make([]string, 0, len(units))
	for _, u := range units {
		if u.VehicleID != "" {
			ids = append(ids, u.VehicleID)
		}
	}
	return strings.Join(ids, ", ")
}

// drivers lists active drivers per unit, units separated by " / ".
func drivers(units []models.UnitAssignment) string {
	var groups []string
	for _, u := range units {
		if active := u.ActiveDrivers(); len(active) > 0 {
			groups = append(groups, strings.Join(active, ", "))
		}
	}
	return strings.Join(groups, " / ")
}

func completed(done bool) string {
	if done {
		return "sí"
	}
	return "no"
}

func WriteCSV(w io.Writer, records models.RecordsByDate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(Rows(records)); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func WriteXLSX(w io.Writer, records models.RecordsByDate) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range Rows(records) {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", lastCol, 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ToFile writes records to path in the given format.
func ToFile(path string, format Format, records models.RecordsByDate) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch format {
	case FormatCSV:
		return WriteCSV(file, records)
	case FormatXLSX:
		return WriteXLSX(file, records)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
