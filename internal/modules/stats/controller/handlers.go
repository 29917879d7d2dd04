package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tkeffer/weewx-xaggs/internal/units"
	"github.com/tkeffer/weewx-xaggs/internal/utils"
	"github.com/tkeffer/weewx-xaggs/internal/xaggs"
)

type aggregateResponse struct {
	ObsType   string   `json:"obsType"`
	AggType   string   `json:"aggType"`
	Value     *float64 `json:"value,omitempty"`
	Timestamp *int64   `json:"timestamp,omitempty"`
	Unit      string   `json:"unit"`
	Group     string   `json:"group"`
}

func (c *statsControllerImpl) handleAggregate(w http.ResponseWriter, r *http.Request) {
	obsType := r.PathValue("obs")
	aggType := r.PathValue("agg")
	if obsType == "" || aggType == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing observation or aggregate name")
		return
	}

	span, err := parseSpanQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	opt, err := parseOptionsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	val, err := c.registry.GetAggregate(obsType, span, aggType, opt)
	if err != nil {
		writeAggregateError(w, r, err)
		return
	}

	resp := aggregateResponse{
		ObsType: obsType,
		AggType: aggType,
		Unit:    val.Unit,
		Group:   string(val.Group),
	}
	switch val.Kind {
	case units.KindTimestamp:
		resp.Timestamp = &val.TS
	default:
		resp.Value = &val.Num
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func writeAggregateError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unknownAgg  *xaggs.UnknownAggregateError
		noData      *xaggs.NoDataError
		unknownType *xaggs.UnknownTypeError
		badSpan     *xaggs.UnsupportedSpanError
		missingArg  *xaggs.MissingArgumentError
		badUnits    *units.IncompatibleUnitsError
	)
	switch {
	case errors.As(err, &unknownAgg), errors.As(err, &noData):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unknownType), errors.As(err, &badSpan),
		errors.As(err, &missingArg), errors.As(err, &badUnits):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("aggregate query failed", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "aggregate query failed")
	}
}
