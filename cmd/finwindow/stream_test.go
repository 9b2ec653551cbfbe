package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStream_InterleavedTickers(t *testing.T) {
	feed := aggsHeader +
		"AAPL,1,1,10,1,1,1704171600,1\n" +
		"MSFT,1,1,100,1,1,1704171600,1\n" +
		"AAPL,1,1,12,1,1,1704171660,1\n" +
		"MSFT,1,1,,1,1,1704171660,1\n" +
		"MSFT,1,1,104,1,1,1704171720,1\n"

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(feed))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"stream", "-i", "sma(2)", "--ready-only"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		streamIndicators = nil
		streamReady = false
	})

	require.NoError(t, rootCmd.Execute())

	var outs []window.Output
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var o window.Output
		require.NoError(t, json.Unmarshal([]byte(line), &o))
		outs = append(outs, o)
	}

	// MSFT's gap leaves its second window undefined
	require.Len(t, outs, 1)
	assert.Equal(t, "AAPL", outs[0].Key)
	assert.Equal(t, int64(1), outs[0].Index)
	assert.Equal(t, core.Some(11), outs[0].Value)
}
