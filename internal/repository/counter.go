package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
)

// CounterRepository implements domain.SequenceAllocator on PostgreSQL.
// The increment-and-read happens in a single upsert statement, so two
// concurrent allocations can never observe the same sequence value.
type CounterRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewCounterRepository creates a new counter repository
func NewCounterRepository(db *pgxpool.Pool, logger *logrus.Logger) *CounterRepository {
	return &CounterRepository{
		db:  db,
		log: logger,
	}
}

// Allocate returns the next sequence value for counterName. A never-seen
// counter is initialized to domain.CounterBase and that base value is
// returned; subsequent calls return base+1, base+2 and so on. On store
// failure the error carries domain.ErrPersistence and no value is
// fabricated.
func (r *CounterRepository) Allocate(ctx context.Context, counterName string) (int64, error) {
	query := `
		INSERT INTO counters (name, sequence)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET sequence = counters.sequence + 1
		RETURNING sequence`

	var sequence int64
	if err := r.db.QueryRow(ctx, query, counterName, int64(domain.CounterBase)).Scan(&sequence); err != nil {
		r.log.WithFields(logrus.Fields{
			"counter": counterName,
			"error":   err,
		}).Error("Failed to allocate sequence")
		return 0, fmt.Errorf("allocating sequence for %q: %w", counterName, domain.ErrPersistence)
	}

	r.log.WithFields(logrus.Fields{
		"counter":  counterName,
		"sequence": sequence,
	}).Debug("Sequence allocated")

	return sequence, nil
}
