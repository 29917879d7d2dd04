package stats

import (
	"database/sql"
	"net/http"

	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/repository"
	"github.com/tkeffer/weewx-xaggs/internal/modules/stats/controller"
	"github.com/tkeffer/weewx-xaggs/internal/xaggs"
)

// RegisterFeature exposes the extended aggregates over HTTP.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, dialect repository.Dialect, table string) {
	archiveRepository := repository.NewRepository(db, dialect, table)
	registry := xaggs.NewRegistry(
		xaggs.NewHistorical(archiveRepository),
		xaggs.NewAvgCount(archiveRepository),
	)
	statsController := controller.NewStatsController(registry)
	statsController.RegisterRoutes(mux)
}
