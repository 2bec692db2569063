package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo returns a Postgres-backed triage record repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const recordCols = `id, patient_id, symptoms, duration, severity_label, risk_factors,
	ticket, wait_time, status, session_id, created_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO triage_records (
			patient_id, symptoms, duration, severity_label, risk_factors,
			ticket, wait_time, status, session_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (session_id) WHERE session_id IS NOT NULL DO NOTHING
		RETURNING id, created_at`,
		rec.PatientID, rec.Symptoms, rec.Duration, rec.SeverityLabel, rec.RiskFactors,
		rec.Ticket, rec.WaitTime, rec.Status, rec.SessionID,
	).Scan(&rec.ID, &rec.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		// The session was already recorded; hand back the first write.
		return r.loadBySession(ctx, rec)
	}
	if err != nil {
		return fmt.Errorf("triage record create: %w", err)
	}
	return nil
}

func (r *repoPG) loadBySession(ctx context.Context, rec *Record) error {
	if rec.SessionID == nil {
		return fmt.Errorf("triage record create: insert returned no row")
	}
	existing, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM triage_records WHERE session_id = $1`, rec.SessionID))
	if err != nil {
		return fmt.Errorf("triage record load by session: %w", err)
	}
	*rec = *existing
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM triage_records`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("triage record count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM triage_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("triage record list: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("triage record scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Record, error) {
	rec, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM triage_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("triage record get: %w", err)
	}
	return rec, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE triage_records SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("triage record update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *repoPG) scanOne(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.Symptoms, &rec.Duration, &rec.SeverityLabel,
		&rec.RiskFactors, &rec.Ticket, &rec.WaitTime, &rec.Status, &rec.SessionID,
		&rec.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
