package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"homework-check/api/internal/correct"
)

type ResultRepo struct{ DB *sql.DB }

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{DB: db} }

// ResultRow is what the front-ends need back from the cache.
type ResultRow struct {
	CreatedAt  time.Time
	StudentID  string
	ImageHash  string
	Subject    string
	GradeLevel string
	Result     correct.Result
}

// FindByHash returns the cached result for (image_hash, subject, grade).
// maxAge > 0 additionally requires freshness.
func (r *ResultRepo) FindByHash(ctx context.Context, imageHash, subject, gradeLevel string, maxAge time.Duration) (*ResultRow, error) {
	const q = `
select created_at, student_id, image_hash, subject, grade_level, result_json
from correction_results
where image_hash = $1 and subject = $2 and grade_level = $3`
	row := r.DB.QueryRowContext(ctx, q, imageHash, subject, gradeLevel)

	var (
		ts  time.Time
		out ResultRow
		js  []byte
	)
	if err := row.Scan(&ts, &out.StudentID, &out.ImageHash, &out.Subject, &out.GradeLevel, &js); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	if err := json.Unmarshal(js, &out.Result); err != nil {
		// Broken JSON counts as a miss; the pipeline will recompute.
		return nil, ErrNotFound
	}
	out.CreatedAt = ts
	return &out, nil
}

// Save upserts a correction result under its cache key.
func (r *ResultRepo) Save(ctx context.Context, imageHash, subject, gradeLevel string, res *correct.Result) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	const q = `
insert into correction_results (image_hash, subject, grade_level, student_id, accuracy_rate, result_json)
values ($1,$2,$3,$4,$5,$6)
on conflict (image_hash, subject, grade_level) do update
set student_id = excluded.student_id,
    accuracy_rate = excluded.accuracy_rate,
    result_json = excluded.result_json`
	_, err = r.DB.ExecContext(ctx, q, imageHash, subject, gradeLevel, res.StudentID, res.AccuracyRate, string(js))
	return err
}

// PurgeOlderThan keeps the cache from growing without bound.
func (r *ResultRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from correction_results where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
