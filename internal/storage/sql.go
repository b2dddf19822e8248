package storage

import (
	_ "embed"
)

const (
	insertDatasetSQL = `
INSERT INTO datasets (
                      created_at,
                      name,
                      source)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectDatasetSQL = `
SELECT 
    d.id, 
    d.created_at, 
    d.name, 
    d.source,
    COUNT(r.id)
FROM datasets d
LEFT JOIN records r ON r.dataset_id = d.id
WHERE 
    d.id = ?
GROUP BY d.id`

	deleteDatasetSQL = `
DELETE FROM datasets
WHERE 
    id = ?`

	selectDatasetByNameSQL = `
SELECT 
    id
FROM datasets 
WHERE 
    name = ?`

	selectDatasetsSQL = `
SELECT 
    d.id, 
    d.created_at, 
    d.name, 
    d.source,
    COUNT(r.id)
FROM datasets d
LEFT JOIN records r ON r.dataset_id = d.id
GROUP BY d.id
ORDER BY d.created_at, d.id`

	insertRecordSQL = `
INSERT INTO records (dataset_id,
                     timestamp,
                     year,
                     month,
                     day,
                     hour,
                     minute,
                     second,
                     stid,
                     channel,
                     bmnum,
                     tfreq,
                     nrang,
                     gflg,
                     slist,
                     vectors,
                     scalars)
VALUES `

	insertRecordPlaceholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	insertRecordColumns     = 17

	selectRecordsSQL = `
SELECT 
    year,
    month,
    day,
    hour,
    minute,
    second,
    stid,
    channel,
    bmnum,
    tfreq,
    nrang,
    gflg,
    slist,
    vectors,
    scalars
FROM records
WHERE 
    dataset_id = ?`
)

//go:embed schema.sql
var initSchemaSQL string

//go:embed indexes.sql
var initIndexesSQL string
