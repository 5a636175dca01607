package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diwise/odata-toolkit/internal/pkg/application/inspector"
	"github.com/diwise/odata-toolkit/internal/pkg/infrastructure/router"
	"github.com/diwise/odata-toolkit/internal/pkg/presentation/api/odata"
	"github.com/diwise/odata-toolkit/pkg/odata/edm"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const serviceName string = "odata-inspector"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion, "json")
	defer cleanup()

	cfg, err := LoadConfiguration(ctx)
	if err != nil {
		log.Error("failed to load configuration", "err", err.Error())
		os.Exit(1)
	}

	handler, err := initialize(ctx, cfg)
	cfg.Close()

	if err != nil {
		log.Error("failed to initialize service", "err", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.servicePort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting to listen for connections", "port", cfg.servicePort)

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to listen for connections", "err", err.Error())
		os.Exit(1)
	}

	log.Info("shut down complete")
}

func initialize(ctx context.Context, cfg *AppConfig) (http.Handler, error) {
	inspectorConfig, err := inspector.LoadConfiguration(cfg.inspectorConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load inspector configuration: %w", err)
	}

	model, err := edm.LoadModel(cfg.modelConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	app, err := inspector.New(ctx, inspectorConfig, model)
	if err != nil {
		return nil, err
	}

	r := router.New(serviceName)

	err = odata.RegisterHandlers(ctx, r, cfg.opaConfig, app)
	if err != nil {
		return nil, err
	}

	return r, nil
}
