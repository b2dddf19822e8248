package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

const defaultMaxBatchSize = 500

// ErrNotFound indicates that the requested dataset does not exist.
var ErrNotFound = errors.New("dataset not found")

// WithMaxBatchSize sets the maximum number of records inserted by a single
// statement.
func WithMaxBatchSize(size int) func(*SqliteStore) {
	return func(s *SqliteStore) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath       string
	maxBatchSize int

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// Connections are opened lazily; the schema is created on first write.
func NewSqliteStore(dbPath string, options ...func(*SqliteStore)) *SqliteStore {
	s := &SqliteStore{
		dbPath:       dbPath,
		maxBatchSize: defaultMaxBatchSize,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateDataset(ctx context.Context, name string, source *string) (datasetID int64, err error) {
	if name == "" {
		err = errors.New("dataset name is required")
		return
	}

	var sourceData sql.NullString
	if source != nil {
		sourceData = sql.NullString{String: *source, Valid: true}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertDatasetSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, name, sourceData)
	if err != nil {
		err = fmt.Errorf("inserting dataset '%s': %w", name, err)
		return
	}

	datasetID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting dataset ID: %w", err)
	}
	return
}

func (s *SqliteStore) Dataset(ctx context.Context, id int64) (dataset *darn.Dataset, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}
	return queryDataset(ctx, db, id)
}

func queryDataset(ctx context.Context, db *sql.DB, id int64) (dataset *darn.Dataset, err error) {
	stmt, err := db.PrepareContext(ctx, selectDatasetSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var ds darn.Dataset
	var source sql.NullString
	if err = stmt.QueryRowContext(ctx, id).Scan(&ds.ID, &ds.CreatedAt, &ds.Name, &source, &ds.Records); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("dataset %d: %w", id, ErrNotFound)
			return
		}
		err = fmt.Errorf("scanning dataset: %w", err)
		return
	}
	if source.Valid {
		ds.Source = &source.String
	}

	return &ds, nil
}

func (s *SqliteStore) DatasetByName(ctx context.Context, name string) (datasetID int64, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectDatasetByNameSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if err = stmt.QueryRowContext(ctx, name).Scan(&datasetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("dataset '%s': %w", name, ErrNotFound)
			return
		}
		err = fmt.Errorf("scanning dataset: %w", err)
	}
	return
}

func (s *SqliteStore) Datasets(ctx context.Context) (datasets []*darn.Dataset, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectDatasetsSQL)
	if err != nil {
		err = fmt.Errorf("querying datasets: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var ds darn.Dataset
		var source sql.NullString
		if err = rows.Scan(&ds.ID, &ds.CreatedAt, &ds.Name, &source, &ds.Records); err != nil {
			err = fmt.Errorf("scanning dataset: %w", err)
			return
		}
		if source.Valid {
			ds.Source = &source.String
		}
		datasets = append(datasets, &ds)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreRecords(ctx context.Context, datasetID int64, records []darn.Record) (err error) {
	if len(records) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for start := 0; start < len(records); start += s.maxBatchSize {
		end := min(start+s.maxBatchSize, len(records))
		if err = insertRecords(ctx, tx, datasetID, records[start:end]); err != nil {
			return fmt.Errorf("batch inserting records %d-%d: %w", start, end-1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// DeleteDataset removes a dataset. Its records are removed by the
// foreign key cascade.
func (s *SqliteStore) DeleteDataset(ctx context.Context, id int64) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.ExecContext(ctx, deleteDatasetSQL, id)
	if err != nil {
		return fmt.Errorf("deleting dataset %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("dataset %d: %w", id, ErrNotFound)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, datasetID int64, records []darn.Record) error {
	values := make([]any, 0, len(records)*insertRecordColumns)

	var sb strings.Builder
	sb.WriteString(insertRecordSQL)

	for i := range records {
		data, err := toRecordData(datasetID, &records[i])
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		values = append(values,
			data.DatasetID,
			data.Timestamp,
			data.Year,
			data.Month,
			data.Day,
			data.Hour,
			data.Minute,
			data.Second,
			data.Stid,
			data.Channel,
			data.Bmnum,
			data.Tfreq,
			data.Nrang,
			data.Gflg,
			data.Slist,
			data.Vectors,
			data.Scalars,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(insertRecordPlaceholder)
	}

	_, err := tx.ExecContext(ctx, sb.String(), values...)
	return err
}

// ReadRecords creates a new reader over the records of a dataset. Records
// are returned in the order they were stored.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - datasetID: Unique identifier of the dataset to read from
//   - opts: Optional filters (WithChannel, WithFreqRange, WithMinFreq, WithMaxFreq,
//     WithTimeRange, WithStartTime, WithEndTime)
//
// The returned reader must be closed after use to release database resources.
// Each reader instance should only be used from a single goroutine.
func (s *SqliteStore) ReadRecords(ctx context.Context, datasetID int64, opts ...ReaderOption) (RecordReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteRecordReader(ctx, db, datasetID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}

var _ Store = (*SqliteStore)(nil)
