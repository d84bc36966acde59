package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/storage"
)

const serviceColumns = `id, client_name, service_name, units, origin, destination,
       scheduled_time, notes, completed, year, month, day`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (models.ServiceRecord, error) {
	var r models.ServiceRecord
	var units []byte

	err := row.Scan(
		&r.ID, &r.ClientName, &r.ServiceName, &units, &r.Origin, &r.Destination,
		&r.ScheduledTime, &r.Notes, &r.Completed, &r.Year, &r.Month, &r.Day,
	)
	if err != nil {
		return models.ServiceRecord{}, err
	}

	if err := json.Unmarshal(units, &r.Units); err != nil {
		return models.ServiceRecord{}, fmt.Errorf("failed to decode units of service %s: %w", r.ID, err)
	}
	return r, nil
}

// encodeUnits returns the JSON text of units. It is sent as text and cast to
// jsonb in the statement, since pq encodes []byte parameters as bytea.
func encodeUnits(units []models.UnitAssignment) (string, error) {
	if units == nil {
		units = []models.UnitAssignment{}
	}
	data, err := json.Marshal(units)
	if err != nil {
		return "", fmt.Errorf("failed to encode units: %w", err)
	}
	return string(data), nil
}

func (s *Store) SelectAll(ctx context.Context) ([]models.ServiceRecord, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ServiceRecord
	for rows.Next() {
		r, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) Insert(ctx context.Context, r models.ServiceRecord) (models.ServiceRecord, error) {
	if s.db == nil {
		return models.ServiceRecord{}, storage.ErrNotLoaded
	}

	units, err := encodeUnits(r.Units)
	if err != nil {
		return models.ServiceRecord{}, err
	}

	id := r.ID
	if id == "" {
		id = uuid.New().String()
	}

	row := s.db.QueryRowContext(ctx, `
INSERT INTO services (id, client_name, service_name, units, origin, destination,
                      scheduled_time, notes, completed, year, month, day)
VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING `+serviceColumns,
		id, r.ClientName, r.ServiceName, units, r.Origin, r.Destination,
		r.ScheduledTime, r.Notes, r.Completed, r.Year, r.Month, r.Day,
	)

	saved, err := scanService(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ServiceRecord{}, storage.ErrEmptyResult
		}
		return models.ServiceRecord{}, err
	}
	return saved, nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, r models.ServiceRecord) (models.ServiceRecord, error) {
	if s.db == nil {
		return models.ServiceRecord{}, storage.ErrNotLoaded
	}

	units, err := encodeUnits(r.Units)
	if err != nil {
		return models.ServiceRecord{}, err
	}

	row := s.db.QueryRowContext(ctx, `
UPDATE services
SET client_name = $1, service_name = $2, units = $3::jsonb, origin = $4, destination = $5,
    scheduled_time = $6, notes = $7, completed = $8, year = $9, month = $10, day = $11,
    updated_at = now()
WHERE id = $12
RETURNING `+serviceColumns,
		r.ClientName, r.ServiceName, units, r.Origin, r.Destination,
		r.ScheduledTime, r.Notes, r.Completed, r.Year, r.Month, r.Day, id,
	)

	saved, err := scanService(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ServiceRecord{}, storage.ErrNotFound
		}
		return models.ServiceRecord{}, err
	}
	return saved, nil
}

func (s *Store) SetCompleted(ctx context.Context, id string, completed bool) (models.ServiceRecord, error) {
	if s.db == nil {
		return models.ServiceRecord{}, storage.ErrNotLoaded
	}

	row := s.db.QueryRowContext(ctx, `
UPDATE services
SET completed = $1, updated_at = now()
WHERE id = $2
RETURNING `+serviceColumns, completed, id)

	saved, err := scanService(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ServiceRecord{}, storage.ErrNotFound
		}
		return models.ServiceRecord{}, err
	}
	return saved, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
