package storage

import (
	"database/sql"
	"time"
)

// recordData is the row representation of a darn.Record.
type recordData struct {
	DatasetID int64
	Timestamp time.Time
	Year      int
	Month     int
	Day       int
	Hour      int
	Minute    int
	Second    int
	Stid      int
	Channel   int
	Bmnum     int
	Tfreq     sql.NullFloat64
	Nrang     sql.NullInt64
	Gflg      sql.NullString
	Slist     sql.NullString
	Vectors   sql.NullString
	Scalars   sql.NullString
}
