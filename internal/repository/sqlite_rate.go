package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteRateRepo implements RateRepo over the global rate table.
type SQLiteRateRepo struct {
	db db.DBTX
}

func NewSQLiteRateRepo(db db.DBTX) *SQLiteRateRepo {
	return &SQLiteRateRepo{db: db}
}

func (r *SQLiteRateRepo) Upsert(ctx context.Context, rate *domain.Rate) error {
	ensureID(&rate.ID)
	query := `INSERT INTO rates (id, role, level, hourly_rate) VALUES (?, ?, ?, ?)
		ON CONFLICT (role, level) DO UPDATE SET hourly_rate = excluded.hourly_rate
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, rate.ID, rate.Role, rate.Level, rate.HourlyRate).Scan(&rate.ID); err != nil {
		return writeErr("upserting rate", err)
	}
	return nil
}

func (r *SQLiteRateRepo) List(ctx context.Context) ([]domain.Rate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, role, level, hourly_rate FROM rates ORDER BY role, level`)
	if err != nil {
		return nil, fmt.Errorf("listing rates: %w", err)
	}
	defer rows.Close()

	var out []domain.Rate
	for rows.Next() {
		var rate domain.Rate
		if err := rows.Scan(&rate.ID, &rate.Role, &rate.Level, &rate.HourlyRate); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		out = append(out, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rates: %w", err)
	}
	return out, nil
}
