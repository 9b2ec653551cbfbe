package series

import (
	"fmt"
	"sort"

	"github.com/newthinker/finwindow/internal/core"
)

// ValueColumns lists the bar columns that can feed an indicator.
func ValueColumns() []string {
	return []string{"open", "high", "low", "close", "volume"}
}

// Partitions groups bars by ticker, keeping only symbols when it is
// non-empty, and orders each group by time. Rows with equal times keep
// their input order. Partitions are returned sorted by key and rows are
// numbered from zero.
func Partitions(bars []core.Bar, valueColumn string, symbols []string) ([]core.Partition, error) {
	if _, ok := (core.Bar{}).Field(valueColumn); !ok {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown value column %q, want one of %v", valueColumn, ValueColumns()))
	}

	keep := symbolSet(symbols)
	groups := make(map[string][]core.Bar)
	for _, b := range bars {
		if keep != nil {
			if _, ok := keep[b.Ticker]; !ok {
				continue
			}
		}
		groups[b.Ticker] = append(groups[b.Ticker], b)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]core.Partition, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Time.Before(group[j].Time) })

		obs := make([]core.Observation, len(group))
		for i, b := range group {
			v, _ := b.Field(valueColumn)
			obs[i] = core.Observation{Index: int64(i), Time: b.Time, Value: v}
		}
		parts = append(parts, core.Partition{Key: k, Observations: obs})
	}
	return parts, nil
}

func symbolSet(symbols []string) map[string]struct{} {
	if len(symbols) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return set
}
