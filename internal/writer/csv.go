package writer

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rickgao/ibmirror/internal/model"
)

var csvHeader = []string{"datetime", "open", "high", "low", "close", "volume", "open_interest"}

// CSVSink writes each series to <dir>/<symbol>.csv, replacing the previous
// file.
type CSVSink struct {
	dir string
}

// NewCSVSink creates a CSV sink rooted at dir. The directory is created on
// first write.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the file a series for symbol is written to.
func (s *CSVSink) Path(symbol string) string {
	return filepath.Join(s.dir, filepath.Base(symbol)+".csv")
}

// Write renders series as CSV. The file is written to a temp name and
// renamed so readers never see a partial series.
func (s *CSVSink) Write(ctx context.Context, series model.Series) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}

	path := s.Path(series.Symbol)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range series.Bars {
		if err := w.Write(csvRecord(b)); err != nil {
			tmp.Close()
			return fmt.Errorf("write bar %s: %w", b.Datetime, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename csv: %w", err)
	}
	return nil
}

func csvRecord(b model.Bar) []string {
	return []string{
		b.Datetime,
		strconv.FormatFloat(b.Open, 'f', -1, 64),
		strconv.FormatFloat(b.High, 'f', -1, 64),
		strconv.FormatFloat(b.Low, 'f', -1, 64),
		strconv.FormatFloat(b.Close, 'f', -1, 64),
		strconv.FormatInt(b.Volume, 10),
		strconv.Itoa(b.OpenInterest),
	}
}
