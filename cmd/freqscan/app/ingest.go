package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/storage"
)

// RunIngest decodes DMAP dumps and stores their records as a new dataset.
// Files are decoded concurrently; records keep the order of the input files.
func RunIngest(ctx context.Context, config *IngestConfig, logger *slog.Logger) error {
	if err := config.Validate(); err != nil {
		return err
	}

	batches, err := decodeFiles(ctx, config.Inputs, config.Workers, logger)
	if err != nil {
		return err
	}

	var records []darn.Record
	for _, b := range batches {
		records = append(records, b...)
	}
	if len(records) == 0 {
		return errors.New("input files contain no records")
	}

	source := config.Source
	if source == "" {
		names := make([]string, len(config.Inputs))
		for i, in := range config.Inputs {
			names[i] = filepath.Base(in)
		}
		source = strings.Join(names, ",")
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	datasetID, err := storeDataset(ctx, store, config.Dataset, source, records, logger)
	if err != nil {
		return err
	}

	logger.Info("dataset created",
		slog.Group("stats",
			slog.Int64("id", datasetID),
			slog.String("name", config.Dataset),
			slog.Int("files", len(config.Inputs)),
			slog.String("records", humanize.Comma(int64(len(records)))),
		))
	return nil
}

// storeDataset creates a dataset and fills it with records. A dataset whose
// records could not be stored is removed again so its name can be reused.
func storeDataset(ctx context.Context, store storage.Store, name, source string, records []darn.Record, logger *slog.Logger) (int64, error) {
	datasetID, err := store.CreateDataset(ctx, name, &source)
	if err != nil {
		return 0, fmt.Errorf("creating dataset: %w", err)
	}

	if err = store.StoreRecords(ctx, datasetID, records); err != nil {
		err = fmt.Errorf("storing records: %w", err)

		if delErr := store.DeleteDataset(context.WithoutCancel(ctx), datasetID); delErr != nil {
			logger.Error("failed to remove incomplete dataset",
				slog.Int64("id", datasetID),
				slog.String("error", delErr.Error()))
			return 0, errors.Join(err, delErr)
		}
		return 0, err
	}
	return datasetID, nil
}

func decodeFiles(ctx context.Context, paths []string, workers int, logger *slog.Logger) ([][]darn.Record, error) {
	batches := make([][]darn.Record, len(paths))

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for i, path := range paths {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			records, err := decodeFile(path)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", path, err)
			}
			batches[i] = records

			logger.Debug("decoded file", slog.String("path", path), slog.Int("records", len(records)))
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

func decodeFile(path string) ([]darn.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeRecords(f)
}

// decodeRecords reads records from a JSON array or from newline-delimited
// JSON objects.
func decodeRecords(r io.Reader) ([]darn.Record, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var records []darn.Record
		if err = dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding record array: %w", err)
		}
		return records, nil
	}

	var records []darn.Record
	for {
		var rec darn.Record
		if err = dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("decoding record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
