package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
)

var ErrNotFound = sql.ErrNoRows

// CalculationRepo persists finished pipeline runs. A nil repo (no database
// configured) is valid and turns every call into a no-op.
type CalculationRepo struct{ DB *sql.DB }

func NewCalculationRepo(db *sql.DB) *CalculationRepo {
	if db == nil {
		return nil
	}
	return &CalculationRepo{DB: db}
}

// CalculationRow mirrors the calculations table.
type CalculationRow struct {
	ID            int64
	CreatedAt     time.Time
	Operation     string
	OriginalInput string
	DisplayResult string
	MarkupResult  string
	Steps         []engine.Step
	StepsSource   string
}

// Insert saves one answered request. Called after the pipeline returns, never
// inside it.
func (r *CalculationRepo) Insert(ctx context.Context, answer *engine.PackagedAnswer, stepsSource string, steps []engine.Step) error {
	if r == nil || r.DB == nil {
		return nil
	}
	js, _ := json.Marshal(steps)
	const q = `
insert into calculations (
  operation, original_input, display_result, markup_result, steps_json, steps_source
) values ($1,$2,$3,$4,$5,$6)`
	_, err := r.DB.ExecContext(ctx, q,
		answer.Operation, answer.OriginalInput, answer.DisplayResult, answer.MarkupResult,
		js, stepsSource,
	)
	return err
}

// Recent lists the latest saved calculations, newest first.
func (r *CalculationRepo) Recent(ctx context.Context, limit int) ([]CalculationRow, error) {
	if r == nil || r.DB == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
select id, created_at, operation, original_input,
       display_result, markup_result, steps_json, coalesce(steps_source,'engine')
from calculations
order by created_at desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalculationRow
	for rows.Next() {
		var (
			row CalculationRow
			js  []byte
		)
		if err := rows.Scan(&row.ID, &row.CreatedAt, &row.Operation, &row.OriginalInput,
			&row.DisplayResult, &row.MarkupResult, &js, &row.StepsSource); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(js, &row.Steps); err != nil {
			row.Steps = nil
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PurgeOlderThan trims ancient history so the table does not grow without
// bound.
func (r *CalculationRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if r == nil || r.DB == nil || olderThan <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from calculations where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
