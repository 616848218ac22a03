package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Float8 conversion helpers (for nullable DOUBLE PRECISION columns)

func floatPtrToFloat8(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: *f, Valid: true}
}

func float8ToFloatPtr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// Timestamp conversion helpers

func timeToTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// sinceBounds returns the epoch-millisecond and timestamp lower bounds for an
// optional window; a nil since matches everything.
func sinceBounds(since *time.Time) (int64, time.Time) {
	if since == nil {
		return 0, time.Time{}
	}
	return since.UnixMilli(), *since
}
