package service

import (
	"log/slog"

	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/repository"
	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/types"
	"github.com/tkeffer/weewx-xaggs/internal/mqtt"
)

type Service struct {
	repository repository.ArchiveRepository
	logger     *slog.Logger
}

func NewService(repository repository.ArchiveRepository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// Register attaches the archive ingest handler to the subscriber.
func (s *Service) Register(subscriber mqtt.RecordSubscriber) {
	registerMQTTHandler(subscriber, s.repository, s.logger)
}

func registerMQTTHandler(subscriber mqtt.RecordSubscriber, repo repository.ArchiveRepository, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(msg types.RecordMessage) error {
		logger.Debug("processing archive record",
			"dateTime", msg.DateTime,
			"usUnits", msg.UnitSystem,
		)

		rec := types.Record{
			DateTime:     msg.DateTime,
			UnitSystem:   msg.UnitSystem,
			Interval:     msg.Interval,
			Observations: msg.Observations,
		}

		if err := repo.InsertRecord(rec); err != nil {
			logger.Error("failed to insert archive record",
				"dateTime", msg.DateTime,
				"error", err,
			)
			return err
		}

		logger.Debug("stored archive record",
			"dateTime", msg.DateTime,
			"observations", len(msg.Observations),
		)
		return nil
	})
}
