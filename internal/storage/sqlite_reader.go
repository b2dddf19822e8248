package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// ReaderOption configures a record reader with specific filtering criteria.
type ReaderOption func(*SqliteRecordReader)

// WithChannel restricts the reader to records of a single channel.
func WithChannel(channel int) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.channel = &channel
	}
}

// WithMinFreq sets the minimum transmitted frequency filter, in kHz.
// Records with an unknown frequency are excluded once any frequency filter
// is set.
func WithMinFreq(f float64) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.minFreq = &f
	}
}

// WithMaxFreq sets the maximum transmitted frequency filter, in kHz.
func WithMaxFreq(f float64) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.maxFreq = &f
	}
}

// WithFreqRange sets both minimum and maximum frequency filters.
func WithFreqRange(minFreq, maxFreq float64) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.minFreq = &minFreq
		r.maxFreq = &maxFreq
	}
}

// WithStartTime excludes records taken before t.
func WithStartTime(t time.Time) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.startTime = &t
	}
}

// WithEndTime excludes records taken after t.
func WithEndTime(t time.Time) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.endTime = &t
	}
}

// WithTimeRange sets both start and end time filters.
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// SqliteRecordReader implements RecordReader for the SQLite database backend.
type SqliteRecordReader struct {
	db *sql.DB

	datasetID int64
	dataset   *darn.Dataset

	channel   *int       // Optional channel filter
	startTime *time.Time // Optional start of time range filter
	endTime   *time.Time // Optional end of time range filter
	minFreq   *float64   // Optional minimum frequency filter
	maxFreq   *float64   // Optional maximum frequency filter

	current *darn.Record
	rows    *sql.Rows
	err     error
}

func newSqliteRecordReader(ctx context.Context, db *sql.DB, datasetID int64, opts ...ReaderOption) (*SqliteRecordReader, error) {
	rr := &SqliteRecordReader{
		db:        db,
		datasetID: datasetID,
	}
	for _, opt := range opts {
		opt(rr)
	}
	if err := rr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return rr, nil
}

func (rr *SqliteRecordReader) init(ctx context.Context) error {
	if rr.db == nil {
		return errors.New("database connection required")
	}
	if rr.datasetID <= 0 {
		return errors.New("dataset ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading dataset", fn: rr.loadDataset},
		{msg: "validating filters", fn: rr.validateFilters},
		{msg: "initializing query", fn: rr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (rr *SqliteRecordReader) loadDataset(ctx context.Context) (err error) {
	rr.dataset, err = queryDataset(ctx, rr.db, rr.datasetID)
	return
}

func (rr *SqliteRecordReader) validateFilters(context.Context) error {
	if rr.startTime != nil && rr.endTime != nil && rr.startTime.After(*rr.endTime) {
		return fmt.Errorf("start time %s is after end time %s", rr.startTime, rr.endTime)
	}
	if rr.minFreq != nil && rr.maxFreq != nil && *rr.minFreq > *rr.maxFreq {
		return fmt.Errorf("min frequency %f is greater than max frequency %f", *rr.minFreq, *rr.maxFreq)
	}
	return nil
}

// query builds the record selection for the configured filters.
func (rr *SqliteRecordReader) query() (string, []any) {
	var sb strings.Builder
	sb.WriteString(selectRecordsSQL)
	args := []any{rr.datasetID}

	if rr.channel != nil {
		sb.WriteString(" AND channel = ?")
		args = append(args, *rr.channel)
	}
	if rr.minFreq != nil {
		sb.WriteString(" AND tfreq >= ?")
		args = append(args, *rr.minFreq)
	}
	if rr.maxFreq != nil {
		sb.WriteString(" AND tfreq <= ?")
		args = append(args, *rr.maxFreq)
	}
	if rr.startTime != nil {
		sb.WriteString(" AND timestamp >= ?")
		args = append(args, rr.startTime.UTC())
	}
	if rr.endTime != nil {
		sb.WriteString(" AND timestamp <= ?")
		args = append(args, rr.endTime.UTC())
	}
	sb.WriteString(" ORDER BY id")

	return sb.String(), args
}

func (rr *SqliteRecordReader) initQuery(ctx context.Context) (err error) {
	query, args := rr.query()

	stmt, err := rr.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if rr.rows, err = stmt.QueryContext(ctx, args...); err != nil {
		return err
	}
	return nil
}

func (rr *SqliteRecordReader) scanRecord() (*darn.Record, error) {
	var data recordData
	err := rr.rows.Scan(
		&data.Year,
		&data.Month,
		&data.Day,
		&data.Hour,
		&data.Minute,
		&data.Second,
		&data.Stid,
		&data.Channel,
		&data.Bmnum,
		&data.Tfreq,
		&data.Nrang,
		&data.Gflg,
		&data.Slist,
		&data.Vectors,
		&data.Scalars,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec, err := fromRecordData(&data)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (rr *SqliteRecordReader) Dataset() *darn.Dataset {
	return rr.dataset
}

func (rr *SqliteRecordReader) Next(ctx context.Context) bool {
	if rr.err != nil || rr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		rr.err = ctx.Err()
		return false
	default:
	}

	if !rr.rows.Next() {
		rr.current = nil
		return false
	}

	rr.current, rr.err = rr.scanRecord()
	return rr.err == nil
}

func (rr *SqliteRecordReader) Current() *darn.Record {
	return rr.current
}

func (rr *SqliteRecordReader) Error() error {
	if rr.err != nil {
		return rr.err
	}
	if rr.rows != nil {
		return rr.rows.Err()
	}
	return nil
}

func (rr *SqliteRecordReader) Close() error {
	if rr.rows != nil {
		err := rr.rows.Close()
		rr.current = nil
		rr.rows = nil
		return err
	}
	return nil
}
