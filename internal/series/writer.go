package series

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/newthinker/finwindow/internal/storage/archive"
	"github.com/newthinker/finwindow/internal/window"
)

// WriteCSV writes results as key,index,time followed by one column per
// indicator. Null cells are empty. All results must carry the same columns.
func WriteCSV(w io.Writer, results []window.Result) error {
	cw := csv.NewWriter(w)

	header := []string{"key", "index", "time"}
	if len(results) > 0 {
		for _, c := range results[0].Columns {
			header = append(header, c.Name)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, res := range results {
		if len(res.Columns) != len(header)-3 {
			return fmt.Errorf("partition %q has %d columns, want %d", res.Key, len(res.Columns), len(header)-3)
		}
		for i := 0; i < res.Len(); i++ {
			row[0] = res.Key
			row[1] = strconv.FormatInt(res.Index[i], 10)
			row[2] = formatTime(res.Time[i])
			for j, c := range res.Columns {
				row[3+j] = ""
				if v := c.Values[i]; v.Valid {
					row[3+j] = v.String()
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes results as CSV to path on store.
func Save(ctx context.Context, store archive.Storage, path string, results []window.Result) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		return err
	}
	return store.Write(ctx, path, buf.Bytes())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
