package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const aggsHeader = "ticker,volume,open,close,high,low,window_start,transactions\n"

func TestDatePaths_SkipsMissingDays(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "us_stocks_sip/day_aggs_v1/2024/01/2024-01-05.csv.gz", []byte("x")))
	require.NoError(t, store.Write(ctx, "us_stocks_sip/day_aggs_v1/2024/01/2024-01-08.csv.gz", []byte("x")))

	computeAsset, computeDataType = "stocks", "day"
	computeFrom, computeTo = "2024-01-05", "2024-01-08"
	t.Cleanup(func() { computeFrom, computeTo = "", "" })

	paths, err := datePaths(ctx, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"us_stocks_sip/day_aggs_v1/2024/01/2024-01-05.csv.gz",
		"us_stocks_sip/day_aggs_v1/2024/01/2024-01-08.csv.gz",
	}, paths)

	computeFrom, computeTo = "2024-01-06", "2024-01-07"
	_, err = datePaths(ctx, store, zap.NewNop())
	assert.ErrorIs(t, err, core.ErrNoData)

	computeFrom, computeTo = "2024-01-08", "2024-01-05"
	_, err = datePaths(ctx, store, zap.NewNop())
	assert.Error(t, err)
}

func TestRunCompute_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "2024-01-02.csv"), []byte(aggsHeader+
		"AAPL,1,1,1,1,1,1704171600,1\n"+
		"AAPL,1,1,2,1,1,1704171660,1\n"+
		"AAPL,1,1,3,1,1,1704171720,1\n"), 0644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("source:\n  path: "+dataDir+"\nmetrics:\n  textfile: "+filepath.Join(dir, "finwindow.prom")+"\n"), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"compute", "-c", cfgPath, "-i", "sma(2)", "2024-01-02.csv"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		computeIndicators = nil
		cfgFile = ""
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "key,index,time,sma_2\n"+
		"AAPL,0,2024-01-02T05:00:00Z,\n"+
		"AAPL,1,2024-01-02T05:01:00Z,1.5\n"+
		"AAPL,2,2024-01-02T05:02:00Z,2.5\n", out.String())

	prom, err := os.ReadFile(filepath.Join(dir, "finwindow.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "finwindow_runs_total")
}

func TestRunCompute_SaveToStorage(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "2024-01-02.csv"), []byte(aggsHeader+
		"MSFT,1,1,10,1,1,1704171600,1\n"+
		"MSFT,1,1,20,1,1,1704171660,1\n"), 0644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("source:\n  path: "+dataDir+"\n"), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"compute", "-c", cfgPath, "-i", "ema(2)", "--save", "results/ema.csv", "2024-01-02.csv"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		computeIndicators = nil
		computeSave = ""
		cfgFile = ""
	})

	require.NoError(t, rootCmd.Execute())
	assert.Empty(t, out.String())

	saved, err := os.ReadFile(filepath.Join(dataDir, "results", "ema.csv"))
	require.NoError(t, err)
	assert.Equal(t, "key,index,time,ema_2\n"+
		"MSFT,0,2024-01-02T05:00:00Z,\n"+
		"MSFT,1,2024-01-02T05:01:00Z,15\n", string(saved))
}
