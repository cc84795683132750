package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"schnorrd/api/clients/schnorrd"
	"schnorrd/internal/config"
	"schnorrd/internal/infra/metrics"
	"schnorrd/internal/logging"
	"schnorrd/internal/orchestrator/activities"
	"schnorrd/internal/orchestrator/workflows"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	healthSrv := startHealthServer(cfg.HealthAddr, m, log)
	defer func() {
		_ = healthSrv.Shutdown(context.Background())
	}()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create temporal client")
	}
	defer temporalClient.Close()

	acts := activities.New(schnorrd.NewClient(cfg.ServerURL,
		schnorrd.WithUserAgent("schnorr-worker"),
		schnorrd.WithAdminKey(cfg.AdminAPIKey),
	), log)
	acts.Metrics = m
	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{
		// Generation is CPU bound.
		MaxConcurrentActivityExecutionSize: cfg.GenerationConcurrency,
	})
	w.RegisterWorkflow(workflows.GenerateParametersWorkflow)
	w.RegisterActivityWithOptions(acts.GenerateParameters, activity.RegisterOptions{Name: activities.GenerateParametersActivityName})
	w.RegisterActivityWithOptions(acts.SaveParameters, activity.RegisterOptions{Name: activities.SaveParametersActivityName})
	w.RegisterActivityWithOptions(acts.ReloadServer, activity.RegisterOptions{Name: activities.ReloadServerActivityName})

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	log.WithField("task_queue", cfg.TemporalTaskQueue).Info("parameter worker listening")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.WithError(err).Fatal("worker exited")
	}
}

func startHealthServer(addr string, m *metrics.Metrics, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("health server error")
		}
	}()
	return srv
}
