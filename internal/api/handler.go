package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/newthinker/finwindow/internal/api/response"
	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/indicator"
	"github.com/newthinker/finwindow/internal/series"
	"github.com/newthinker/finwindow/internal/window"
	"go.uber.org/zap"
)

const maxBodyBytes = 32 << 20

// Handler serves the indicator API.
type Handler struct {
	driver     *window.Driver
	loader     *series.Loader
	indicators []indicator.Spec
	logger     *zap.Logger
}

// NewHandler creates a handler from deps.
func NewHandler(deps Dependencies, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		driver:     deps.Driver,
		loader:     deps.Loader,
		indicators: deps.Indicators,
		logger:     logger,
	}
}

// ComputeRequest is the body of POST /api/v1/compute. Each partition gives
// either plain values, numbered from zero, or explicit observations.
type ComputeRequest struct {
	Indicators []indicator.Spec `json:"indicators"`
	Partitions []PartitionInput `json:"partitions"`
}

// PartitionInput is one partition of a compute request.
type PartitionInput struct {
	Key          string             `json:"key"`
	Values       []core.Value       `json:"values,omitempty"`
	Observations []core.Observation `json:"observations,omitempty"`
}

func (p PartitionInput) partition() (core.Partition, error) {
	if len(p.Values) > 0 && len(p.Observations) > 0 {
		return core.Partition{}, core.WrapError(core.ErrBadRequest,
			fmt.Errorf("partition %q sets both values and observations", p.Key))
	}
	if len(p.Observations) > 0 {
		return core.Partition{Key: p.Key, Observations: p.Observations}, nil
	}
	return core.NewPartition(p.Key, p.Values), nil
}

// Compute runs the requested indicators over the posted partitions.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.fail(w, core.WrapError(core.ErrBadRequest, err))
		return
	}

	specs := req.Indicators
	if len(specs) == 0 {
		specs = h.indicators
	}

	parts := make([]core.Partition, 0, len(req.Partitions))
	for _, in := range req.Partitions {
		p, err := in.partition()
		if err != nil {
			h.fail(w, err)
			return
		}
		parts = append(parts, p)
	}

	results, err := h.driver.Run(r.Context(), specs, parts)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, results)
}

// Indicators lists the supported kinds and the server's default set.
func (h *Handler) Indicators(w http.ResponseWriter, r *http.Request) {
	kinds := make([]string, 0, len(indicator.Kinds()))
	for _, k := range indicator.Kinds() {
		kinds = append(kinds, string(k))
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"kinds":    kinds,
		"defaults": h.indicators,
	})
}

// Files lists data files under ?prefix=.
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	files, err := h.loader.Files(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, files)
}

// Series loads every data file under ?prefix= and computes indicators
// over it. ?indicator= may repeat; ?symbol= narrows to given tickers.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	specs := h.indicators
	if raw := q["indicator"]; len(raw) > 0 {
		parsed, err := indicator.ParseSpecs(raw)
		if err != nil {
			h.fail(w, err)
			return
		}
		specs = parsed
	}

	parts, err := h.loader.LoadPrefix(r.Context(), q.Get("prefix"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if symbols := q["symbol"]; len(symbols) > 0 {
		parts = slices.DeleteFunc(parts, func(p core.Partition) bool {
			return !slices.Contains(symbols, p.Key)
		})
	}

	results, err := h.driver.Run(r.Context(), specs, parts)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, results)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if response.Status(err) >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	response.Fail(w, err)
}
