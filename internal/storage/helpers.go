package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toRecordData(datasetID int64, r *darn.Record) (*recordData, error) {
	data := &recordData{
		DatasetID: datasetID,
		Timestamp: r.Time.UTC(),
		Year:      r.Time.Year,
		Month:     r.Time.Month,
		Day:       r.Time.Day,
		Hour:      r.Time.Hour,
		Minute:    r.Time.Minute,
		Second:    r.Time.Second,
		Stid:      r.Stid,
		Channel:   r.Channel,
		Bmnum:     r.Bmnum,
		Tfreq: sql.NullFloat64{
			Float64: r.Tfreq,
			Valid:   !math.IsNaN(r.Tfreq) && !math.IsInf(r.Tfreq, 0),
		},
		Nrang: sql.NullInt64{
			Int64: toSQLNullType[int64](r.Nrang),
			Valid: r.Nrang != nil,
		},
	}

	var err error
	if data.Gflg, err = toJSONColumn(r.Gflg, r.Gflg != nil); err != nil {
		return nil, fmt.Errorf("encoding gflg: %w", err)
	}
	if data.Slist, err = toJSONColumn(r.Slist, r.Slist != nil); err != nil {
		return nil, fmt.Errorf("encoding slist: %w", err)
	}

	vectors := make(map[string][]*float64, len(r.Vectors))
	for k, v := range r.Vectors {
		vectors[k] = darn.ToNullable(v)
	}
	if data.Vectors, err = toJSONColumn(vectors, len(vectors) > 0); err != nil {
		return nil, fmt.Errorf("encoding vectors: %w", err)
	}

	scalars := make(map[string]float64, len(r.Scalars))
	for k, v := range r.Scalars {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			scalars[k] = v
		}
	}
	if data.Scalars, err = toJSONColumn(scalars, len(scalars) > 0); err != nil {
		return nil, fmt.Errorf("encoding scalars: %w", err)
	}
	return data, nil
}

func fromRecordData(data *recordData) (darn.Record, error) {
	rec := darn.Record{
		Stid:    data.Stid,
		Channel: data.Channel,
		Bmnum:   data.Bmnum,
		Tfreq:   math.NaN(),
		Time: darn.Time{
			Year:   data.Year,
			Month:  data.Month,
			Day:    data.Day,
			Hour:   data.Hour,
			Minute: data.Minute,
			Second: data.Second,
		},
	}
	if data.Tfreq.Valid {
		rec.Tfreq = data.Tfreq.Float64
	}
	if data.Nrang.Valid {
		n := int(data.Nrang.Int64)
		rec.Nrang = &n
	}

	if data.Gflg.Valid {
		rec.Gflg = []int8{}
		if err := json.Unmarshal([]byte(data.Gflg.String), &rec.Gflg); err != nil {
			return darn.Record{}, fmt.Errorf("decoding gflg: %w", err)
		}
	}
	if data.Slist.Valid {
		rec.Slist = []int{}
		if err := json.Unmarshal([]byte(data.Slist.String), &rec.Slist); err != nil {
			return darn.Record{}, fmt.Errorf("decoding slist: %w", err)
		}
	}
	if data.Vectors.Valid {
		var vectors map[string][]*float64
		if err := json.Unmarshal([]byte(data.Vectors.String), &vectors); err != nil {
			return darn.Record{}, fmt.Errorf("decoding vectors: %w", err)
		}
		rec.Vectors = make(map[string][]float64, len(vectors))
		for k, v := range vectors {
			rec.Vectors[k] = darn.FromNullable(v)
		}
	}
	if data.Scalars.Valid {
		if err := json.Unmarshal([]byte(data.Scalars.String), &rec.Scalars); err != nil {
			return darn.Record{}, fmt.Errorf("decoding scalars: %w", err)
		}
	}
	return rec, nil
}

func toJSONColumn(v any, valid bool) (sql.NullString, error) {
	if !valid {
		return sql.NullString{}, nil
	}
	p, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(p), Valid: true}, nil
}

func toSQLNullType[T float64 | int64, Y float64 | int | int64](f *Y) T {
	if f == nil {
		return 0
	}
	return T(*f)
}
