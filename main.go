package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"jugglerbayes/app"
	"jugglerbayes/internal/api"
	"jugglerbayes/internal/catalog"
	"jugglerbayes/internal/config"
	"jugglerbayes/internal/logging"
	"jugglerbayes/ui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadDotEnv()

	appConfig, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := logging.Setup(appConfig.Logging.Level); err != nil {
		log.WithError(err).Fatal("cannot parse log level")
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appConfig); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
	log.Info("Shutdown complete")
}

func run(ctx context.Context, appConfig *config.Config) error {
	src, err := catalog.Open(appConfig.Catalog.File, appConfig.Catalog.Builtin)
	if err != nil {
		return err
	}
	service, err := app.NewEstimationService(ctx, src, app.ServiceOptions{
		SweepWorkers:   appConfig.Sweep.Workers,
		SweepMaxPoints: appConfig.Sweep.MaxPoints,
		MaxTrials:      appConfig.Limits.MaxTrials,
	})
	if err != nil {
		return err
	}

	webServer, err := ui.NewServer(service)
	if err != nil {
		return err
	}

	servers := []*http.Server{
		{Addr: ":" + appConfig.Server.UIPort, Handler: webServer.Handler(), ReadHeaderTimeout: 5 * time.Second},
		{Addr: ":" + appConfig.Server.APIPort, Handler: api.NewServer(service), ReadHeaderTimeout: 5 * time.Second},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.WithField("addr", srv.Addr).Info("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).WithField("addr", srv.Addr).Warn("Shutdown failed")
			}
		}
		return nil
	})
	return g.Wait()
}
