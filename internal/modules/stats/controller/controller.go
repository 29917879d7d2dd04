package controller

import (
	"net/http"

	"github.com/tkeffer/weewx-xaggs/internal/xaggs"
)

type StatsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type statsControllerImpl struct {
	registry *xaggs.Registry
}

func NewStatsController(registry *xaggs.Registry) StatsController {
	return &statsControllerImpl{registry: registry}
}

func (c *statsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats/{obs}/{agg}", c.handleAggregate)
}
