package darn

import "time"

// Dataset is a named collection of records ingested together, typically the
// output of one or more FITACF files of a frequency sweep campaign.
type Dataset struct {
	ID        int64     `json:"id"`               // Unique identifier of the dataset
	CreatedAt time.Time `json:"createdAt"`        // When the dataset was ingested
	Name      string    `json:"name"`             // Unique human readable name
	Source    *string   `json:"source,omitempty"` // Optional description of where the records came from
	Records   int64     `json:"records"`          // Number of records in the dataset
}
