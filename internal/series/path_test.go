package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatFilePath(t *testing.T) {
	day := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	p, err := FlatFilePath("stocks", "day", day)
	require.NoError(t, err)
	assert.Equal(t, "us_stocks_sip/day_aggs_v1/2024/03/2024-03-07.csv.gz", p)

	p, err = FlatFilePath("Crypto", "minute", day)
	require.NoError(t, err)
	assert.Equal(t, "global_crypto/minute_aggs_v1/2024/03/2024-03-07.csv.gz", p)

	_, err = FlatFilePath("bonds", "day", day)
	assert.Error(t, err)
	_, err = FlatFilePath("stocks", "trades", day)
	assert.Error(t, err)
}

func TestIsDataFile(t *testing.T) {
	assert.True(t, IsDataFile("a/2024-01-02.csv.gz"))
	assert.True(t, IsDataFile("a.csv"))
	assert.False(t, IsDataFile("a.txt"))
	assert.False(t, IsDataFile("a.csv.bak"))
}
