package lake

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ContentType is the content type of every part object.
const ContentType = "application/octet-stream"

// Marshal encodes rows into a single-file parquet buffer.
func Marshal[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes every row of a parquet file held in memory.
func Unmarshal[T any](data []byte) ([]T, error) {
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	return rows, nil
}

// PartKey names an output part inside a date partition:
// {table}/date={date}/part-{HHMMSSmicro}.parquet. The wall clock appears
// only here; re-running a period produces a fresh part and downstream
// readers treat the partition last-write-wins.
func PartKey(table, date string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s/date=%s/part-%s%06d.parquet",
		table, date, now.Format("150405"), now.Nanosecond()/1000)
}

// DatePrefix is the listing prefix of one table partition.
func DatePrefix(table, date string) string {
	return fmt.Sprintf("%s/date=%s/", table, date)
}
