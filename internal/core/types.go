package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Value is a nullable float64 sample. The zero Value is null.
//
// Non-finite floats are ordinary valid values; absence is only ever
// expressed through Valid, never through a sentinel number.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a defined Value.
func Some(f float64) Value {
	return Value{Float: f, Valid: true}
}

// Null returns the "no value" marker.
func Null() Value {
	return Value{}
}

// Get returns the float and whether it is defined.
func (v Value) Get() (float64, bool) {
	return v.Float, v.Valid
}

func (v Value) String() string {
	if !v.Valid {
		return "null"
	}
	return strconv.FormatFloat(v.Float, 'g', -1, 64)
}

// MarshalJSON encodes null as JSON null and non-finite floats as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON accepts null, a number, or one of "NaN", "+Inf", "-Inf".
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Null()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", s, err)
		}
		*v = Some(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Observation is a single input sample at a monotonic row position
// within its partition.
type Observation struct {
	Index int64     `json:"index"`
	Time  time.Time `json:"time,omitempty"`
	Value Value     `json:"value"`
}

// Partition is an ordered run of observations sharing a grouping key
// (typically one ticker).
type Partition struct {
	Key          string        `json:"key"`
	Observations []Observation `json:"observations"`
}

// Values projects the value column.
func (p Partition) Values() []Value {
	out := make([]Value, len(p.Observations))
	for i, o := range p.Observations {
		out[i] = o.Value
	}
	return out
}

// Len returns the number of rows.
func (p Partition) Len() int {
	return len(p.Observations)
}

// NewPartition builds a partition from a plain value column, numbering
// rows from zero.
func NewPartition(key string, values []Value) Partition {
	obs := make([]Observation, len(values))
	for i, v := range values {
		obs[i] = Observation{Index: int64(i), Value: v}
	}
	return Partition{Key: key, Observations: obs}
}

// Bar is one aggregate row of a flat file. Price fields are nullable
// because upstream files may leave them blank.
type Bar struct {
	Ticker       string
	Time         time.Time
	Open         Value
	High         Value
	Low          Value
	Close        Value
	Volume       Value
	Transactions int64
}

// Field returns the named price column of the bar.
func (b Bar) Field(name string) (Value, bool) {
	switch name {
	case "open":
		return b.Open, true
	case "high":
		return b.High, true
	case "low":
		return b.Low, true
	case "close":
		return b.Close, true
	case "volume":
		return b.Volume, true
	}
	return Null(), false
}
