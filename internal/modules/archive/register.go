package archive

import (
	"database/sql"
	"log/slog"

	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/repository"
	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/service"
	"github.com/tkeffer/weewx-xaggs/internal/mqtt"
)

// RegisterFeature wires the archive ingest pipeline: records arriving over
// MQTT are validated and written to the archive and its day summaries.
func RegisterFeature(subscriber mqtt.RecordSubscriber, db *sql.DB, dialect repository.Dialect, table string, logger *slog.Logger) {
	archiveRepository := repository.NewRepository(db, dialect, table)
	archiveService := service.NewService(archiveRepository, logger)
	archiveService.Register(subscriber)
}
