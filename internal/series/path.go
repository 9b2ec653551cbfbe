package series

import (
	"fmt"
	"strings"
	"time"
)

// Asset class directories of the flat-file layout.
var assetPrefixes = map[string]string{
	"stocks":  "us_stocks_sip",
	"options": "us_options_opra",
	"futures": "futures",
	"indices": "indices",
	"forex":   "forex",
	"crypto":  "global_crypto",
}

// Data type directories of the flat-file layout.
var dataTypes = map[string]string{
	"minute": "minute_aggs_v1",
	"day":    "day_aggs_v1",
}

// FlatFilePath returns the object path of one day's aggregate file, e.g.
// "us_stocks_sip/day_aggs_v1/2024/01/2024-01-02.csv.gz".
func FlatFilePath(assetClass, dataType string, day time.Time) (string, error) {
	asset, ok := assetPrefixes[strings.ToLower(assetClass)]
	if !ok {
		return "", fmt.Errorf("unknown asset class %q", assetClass)
	}
	dt, ok := dataTypes[strings.ToLower(dataType)]
	if !ok {
		return "", fmt.Errorf("unknown data type %q", dataType)
	}
	return fmt.Sprintf("%s/%s/%s/%s.csv.gz", asset, dt, day.Format("2006/01"), day.Format("2006-01-02")), nil
}

// IsDataFile reports whether path names a CSV file, compressed or not.
func IsDataFile(path string) bool {
	return strings.HasSuffix(path, ".csv") || strings.HasSuffix(path, ".csv.gz")
}
