package writer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/ibmirror/internal/model"
)

const insertBarSQL = `
	INSERT INTO historical_bars (symbol, bar_time, datetime, open, high, low, close, volume, open_interest)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (symbol, bar_time) DO NOTHING
`

// Batcher sends a pgx batch. *pgxpool.Pool satisfies it.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSink appends bars to historical_bars. Bars already stored are
// skipped.
type PostgresSink struct {
	db Batcher
}

// NewPostgresSink creates a Postgres sink.
func NewPostgresSink(db Batcher) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

// Write inserts all bars of series in one batch.
func (s *PostgresSink) Write(ctx context.Context, series model.Series) error {
	_, err := s.insert(ctx, series)
	return err
}

// insert queues one INSERT per bar with ON CONFLICT DO NOTHING and returns
// how many rows already existed.
func (s *PostgresSink) insert(ctx context.Context, series model.Series) (conflicts int, err error) {
	if len(series.Bars) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, b := range series.Bars {
		batch.Queue(insertBarSQL,
			series.Symbol, b.Time, b.Datetime,
			b.Open, b.High, b.Low, b.Close,
			b.Volume, b.OpenInterest,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range series.Bars {
		ct, err := results.Exec()
		if err != nil {
			return conflicts, fmt.Errorf("insert bar %d of %s: %w", i, series.Symbol, err)
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}
	return conflicts, nil
}
