package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/matkukla/DonorCRM/internal/api"
	"github.com/matkukla/DonorCRM/internal/config"
	"github.com/matkukla/DonorCRM/internal/scheduler"
	"github.com/matkukla/DonorCRM/internal/service"
	"github.com/matkukla/DonorCRM/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	cfg.ConfigureLogging()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewStore(ctx, cfg.DBSource)
	if err != nil {
		log.WithError(err).Fatal("unable to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("schema migration failed")
	}

	pledges := service.NewPledgeService(db, cfg.LateGraceDays)
	decisions := service.NewDecisionService(db)
	router := api.NewRouter(api.NewHandler(pledges, decisions))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	if cfg.SweepEnabled {
		sched, err := scheduler.New(cfg.SweepSchedule, pledges)
		if err != nil {
			log.WithError(err).Fatal("failed to schedule late sweep")
		}
		group.Go(func() error {
			return sched.Run(ctx)
		})
	}

	group.Go(func() error {
		log.WithFields(log.Fields{
			"addr": srv.Addr,
			"env":  cfg.Env,
		}).Info("server starting")
		return srv.ListenAndServe()
	})

	group.Go(func() error {
		defer func() {
			log.Info("shutting down web server")
			shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("server shutdown failed")
			}
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			cancel()
			return nil
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("wait error")
	}
	log.Info("gracefully stopped")
}
