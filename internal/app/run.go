package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tkeffer/weewx-xaggs/internal/config"
	"github.com/tkeffer/weewx-xaggs/internal/db"
	"github.com/tkeffer/weewx-xaggs/internal/httpapi"
	"github.com/tkeffer/weewx-xaggs/internal/migrate"
	"github.com/tkeffer/weewx-xaggs/internal/modules/archive"
	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/repository"
	"github.com/tkeffer/weewx-xaggs/internal/modules/stats"
	"github.com/tkeffer/weewx-xaggs/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"driver", cfg.Driver,
		"archiveTable", cfg.ArchiveTable,
		"maxOpenConns", cfg.MaxOpenConns,
		"maxIdleConns", cfg.MaxIdleConns,
		"connMaxLifetime", cfg.ConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, err := db.Open(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	var ok int
	if err := dbConn.QueryRow(`SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	dialect := repository.Dialect(cfg.Driver)

	// Set the MQTT handler before Connect so the subscription is live when
	// the broker delivers queued records after CONNACK.
	mqttSubscriber, err := mqtt.NewSubscriber(cfg, slog.Default())
	if err != nil {
		return err
	}
	archive.RegisterFeature(mqttSubscriber, dbConn, dialect, cfg.ArchiveTable, slog.Default())

	mux := httpapi.NewMux(dbConn)
	stats.RegisterFeature(mux, dbConn, dialect, cfg.ArchiveTable)

	// Short timeout on the initial connect so startup does not block when
	// the broker is down. HTTP and /healthz still work without MQTT.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = mqttSubscriber.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	mqttSubscriber.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
