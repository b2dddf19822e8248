package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// Store provides an interface for managing decoded radar records. Records are
// grouped into datasets and are always read back in the order they were
// stored, which is the order time buckets are discovered in.
type Store interface {
	// CreateDataset registers a new, empty dataset and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - name: Unique dataset name
	//   - source: Optional description of the record origin (e.g. the FITACF file names)
	//
	// Returns:
	//   - datasetID: Unique identifier for the created dataset
	//   - error: If the name is taken, creation fails or context is cancelled
	CreateDataset(ctx context.Context, name string, source *string) (datasetID int64, err error)

	// Dataset retrieves a dataset by its ID.
	//
	// Returns ErrNotFound when there is no such dataset.
	Dataset(ctx context.Context, id int64) (dataset *darn.Dataset, err error)

	// DatasetByName resolves a dataset name into its ID.
	//
	// Returns ErrNotFound when there is no such dataset.
	DatasetByName(ctx context.Context, name string) (datasetID int64, err error)

	// Datasets returns all datasets ordered by creation time.
	Datasets(ctx context.Context) (datasets []*darn.Dataset, err error)

	// StoreRecords appends records to a dataset. Records are written in
	// batches; all batches are committed in a single transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - datasetID: ID of the dataset the records belong to
	//   - records: Records to store, in scan order
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	StoreRecords(ctx context.Context, datasetID int64, records []darn.Record) error

	// DeleteDataset removes a dataset together with its records.
	//
	// Returns ErrNotFound when there is no such dataset.
	DeleteDataset(ctx context.Context, id int64) error

	// ReadRecords returns a reader over the records of a dataset, narrowed
	// down by the given options. The reader must be closed after use.
	ReadRecords(ctx context.Context, datasetID int64, opts ...ReaderOption) (RecordReader, error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}

// RecordReader provides an iterator-based interface for reading records.
type RecordReader interface {
	// Dataset returns metadata about the dataset this reader is accessing.
	Dataset() *darn.Dataset

	// Next advances the iterator and returns true if there is another record
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current record in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *darn.Record

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

// ReadAll drains a reader into a slice.
func ReadAll(ctx context.Context, r RecordReader) ([]darn.Record, error) {
	var records []darn.Record
	for r.Next(ctx) {
		records = append(records, *r.Current())
	}
	if err := r.Error(); err != nil {
		return nil, err
	}
	return records, nil
}
