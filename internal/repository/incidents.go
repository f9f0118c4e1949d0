package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

const incidentColumns = `id, external_id, source, date, end_time, location, latitude, longitude,
	severity, incident_type, description, delay_seconds, created_at, updated_at`

func (s *SQLiteDB) ReconcileBatch(ctx context.Context, incidents []models.Incident) (BatchResult, error) {
	var res BatchResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range incidents {
		inc := &incidents[i]

		// Update-first keeps the reconcile a single statement per branch.
		// An unchanged record still counts as updated so updated_at moves.
		r, err := tx.ExecContext(ctx, `
			UPDATE traffic_incidents
			SET date = ?, location = ?, latitude = ?, longitude = ?,
				severity = ?, incident_type = ?, description = ?,
				delay_seconds = ?, end_time = ?, updated_at = ?
			WHERE external_id = ?`,
			inc.Date, inc.Location, inc.Latitude, inc.Longitude,
			inc.Severity, inc.IncidentType, inc.Description,
			inc.DelaySeconds, nullTime(inc.EndTime), inc.UpdatedAt,
			inc.ExternalID,
		)
		if err != nil {
			return BatchResult{}, fmt.Errorf("error updating incident %s: %w", inc.ExternalID, err)
		}
		if n, _ := r.RowsAffected(); n > 0 {
			res.Updated++
			continue
		}

		// Conflict-as-no-op: a concurrent run inserting the same
		// external_id first turns this into a benign skip.
		r, err = tx.ExecContext(ctx, `
			INSERT INTO traffic_incidents
				(external_id, source, date, end_time, location, latitude, longitude,
				 severity, incident_type, description, delay_seconds, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(external_id) DO NOTHING`,
			inc.ExternalID, inc.Source, inc.Date, nullTime(inc.EndTime), inc.Location,
			inc.Latitude, inc.Longitude, inc.Severity, inc.IncidentType,
			inc.Description, inc.DelaySeconds, inc.CreatedAt, inc.UpdatedAt,
		)
		if err != nil {
			return BatchResult{}, fmt.Errorf("error inserting incident %s: %w", inc.ExternalID, err)
		}
		if n, _ := r.RowsAffected(); n > 0 {
			res.New++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, fmt.Errorf("error committing batch: %w", err)
	}
	return res, nil
}

func (s *SQLiteDB) Insert(ctx context.Context, inc *models.Incident) error {
	r, err := s.db.ExecContext(ctx, `
		INSERT INTO traffic_incidents
			(external_id, source, date, end_time, location, latitude, longitude,
			 severity, incident_type, description, delay_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ExternalID, inc.Source, inc.Date, nullTime(inc.EndTime), inc.Location,
		inc.Latitude, inc.Longitude, inc.Severity, inc.IncidentType,
		inc.Description, inc.DelaySeconds, inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting incident: %w", err)
	}
	if id, err := r.LastInsertId(); err == nil {
		inc.ID = id
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM traffic_incidents WHERE id = ?`, id)
	return scanIncident(row)
}

func (s *SQLiteDB) GetByExternalID(ctx context.Context, externalID string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM traffic_incidents WHERE external_id = ?`, externalID)
	return scanIncident(row)
}

func (s *SQLiteDB) List(ctx context.Context, opts Filter) ([]models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM traffic_incidents`

	var conds []string
	var args []any
	if opts.Since != nil {
		conds = append(conds, "date >= ?")
		args = append(args, *opts.Since)
	}
	if opts.Severity != nil {
		conds = append(conds, "severity = ?")
		args = append(args, *opts.Severity)
	}
	if opts.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, opts.Source)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY date DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.Incident
	for rows.Next() {
		inc, err := scanIncidentRow(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *inc)
	}
	return incidents, rows.Err()
}

func (s *SQLiteDB) CountBySeverity(ctx context.Context) ([]SeverityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) AS count
		FROM traffic_incidents
		GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("error counting by severity: %w", err)
	}
	defer rows.Close()

	var counts []SeverityCount
	for rows.Next() {
		var c SeverityCount
		if err := rows.Scan(&c.Severity, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *SQLiteDB) TopLocations(ctx context.Context, limit int) ([]LocationCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location, COUNT(*) AS count
		FROM traffic_incidents
		GROUP BY location
		ORDER BY count DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error counting by location: %w", err)
	}
	defer rows.Close()

	var counts []LocationCount
	for rows.Next() {
		var c LocationCount
		if err := rows.Scan(&c.Location, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *SQLiteDB) CountByDay(ctx context.Context, days int) ([]DayCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(date) AS day, COUNT(*) AS count
		FROM traffic_incidents
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?`, days)
	if err != nil {
		return nil, fmt.Errorf("error counting by day: %w", err)
	}
	defer rows.Close()

	var counts []DayCount
	for rows.Next() {
		var c DayCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row *sql.Row) (*models.Incident, error) {
	inc, err := scanIncidentRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return inc, err
}

func scanIncidentRow(r rowScanner) (*models.Incident, error) {
	var inc models.Incident
	var endTime sql.NullTime
	var description sql.NullString
	err := r.Scan(
		&inc.ID, &inc.ExternalID, &inc.Source, &inc.Date, &endTime,
		&inc.Location, &inc.Latitude, &inc.Longitude, &inc.Severity,
		&inc.IncidentType, &description, &inc.DelaySeconds,
		&inc.CreatedAt, &inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		inc.EndTime = &endTime.Time
	}
	inc.Description = description.String
	return &inc, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
