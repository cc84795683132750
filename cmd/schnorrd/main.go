package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"schnorrd/internal/config"
	"schnorrd/internal/domain"
	"schnorrd/internal/infra/db"
	httpinfra "schnorrd/internal/infra/http"
	"schnorrd/internal/infra/keymem"
	"schnorrd/internal/infra/keyredis"
	"schnorrd/internal/infra/metrics"
	"schnorrd/internal/infra/paramfile"
	"schnorrd/internal/infra/policyopa"
	"schnorrd/internal/logging"
	"schnorrd/internal/usecase"
	"schnorrd/pkg/schnorr"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level, err := schnorr.ParseSecurityLevel(cfg.SecurityLevel)
	if err != nil {
		log.WithError(err).Fatal("invalid SECURITY_LEVEL")
	}
	hash, err := schnorr.ParseHashAlgorithm(cfg.ChallengeHash)
	if err != nil {
		log.WithError(err).Fatal("invalid CHALLENGE_HASH")
	}

	keys, err := openKeyStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open key store")
	}
	defer func() {
		if err := keys.Close(); err != nil {
			log.WithError(err).Warn("closing key store")
		}
	}()

	m := metrics.New()
	gen := schnorr.NewGenerator(
		schnorr.WithCertainty(cfg.PrimeCertainty),
		schnorr.WithMaxSteps(cfg.GenerationMaxSteps),
		schnorr.WithLogger(log),
	)
	params := usecase.NewParamService(gen, paramfile.NewStore(cfg.ParamsFile, cfg.PrimeCertainty), int64(cfg.GenerationConcurrency))
	params.Attempts = cfg.GenerationAttempts
	params.Hash = hash
	params.Metrics = m
	params.Logger = log

	bootCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout := cfg.GenerationTimeout(); timeout > 0 {
		bootCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	_, err = params.Bootstrap(bootCtx, level, cfg.GenerateOnStart)
	cancel()
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrParamsUnavailable):
		log.WithField("params_file", cfg.ParamsFile).Warn("no domain parameters; signing is unavailable until POST /v1/params")
	default:
		log.WithError(err).Fatal("failed to load domain parameters")
	}

	policy, err := openPolicy(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to compile signing policy")
	}
	log.WithFields(logrus.Fields{
		"bundle_id":   policy.BundleID(),
		"bundle_hash": policy.BundleHash(),
	}).Info("signing policy loaded")

	server := httpinfra.NewServer(cfg, httpinfra.ServerDeps{
		Params:       params,
		Keys:         keys,
		Policy:       policy,
		Metrics:      m,
		MetricsHTTP:  m.Handler(),
		KeyStoreName: keys.name,
		Logger:       log,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"addr":     cfg.HTTPAddr,
		"keystore": keys.name,
		"level":    level.String(),
		"hash":     string(hash),
	}).Info("schnorrd listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server exited")
	}
}

type keyStore struct {
	usecase.KeyStore
	name  string
	ping  func(ctx context.Context) error
	close func() error
}

func (k *keyStore) Ping(ctx context.Context) error { return k.ping(ctx) }

func (k *keyStore) Close() error { return k.close() }

// openKeyStore picks the backend named by KEYSTORE. "auto" prefers postgres, then
// redis, then memory.
func openKeyStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*keyStore, error) {
	kind := cfg.KeyStore
	if kind == "auto" {
		switch {
		case cfg.PostgresDSN != "":
			kind = "postgres"
		case cfg.RedisAddr != "":
			kind = "redis"
		default:
			kind = "memory"
		}
	}

	switch kind {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("KEYSTORE=postgres requires POSTGRES_DSN")
		}
		store, err := db.NewStore(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return &keyStore{
			KeyStore: db.NewKeyRecordRepository(store.DB),
			name:     kind,
			ping:     store.Ping,
			close:    store.Close,
		}, nil
	case "redis":
		store, err := keyredis.NewFromAddr(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return &keyStore{KeyStore: store, name: kind, ping: store.Ping, close: store.Close}, nil
	case "memory":
		log.Warn("using in-memory key store; records are lost on restart")
		store := keymem.New()
		return &keyStore{KeyStore: store, name: kind, ping: store.Ping, close: store.Close}, nil
	default:
		return nil, errors.New("unsupported KEYSTORE " + cfg.KeyStore)
	}
}

func openPolicy(ctx context.Context, cfg config.Config) (*policyopa.Engine, error) {
	settings := policyopa.Settings{
		MaxMessageBytes: int64(cfg.MaxMessageBytes),
		AllowedLevels:   cfg.AllowedLevels(),
	}
	if cfg.PolicyBundlePath != "" {
		return policyopa.NewEngineFromBundlePath(ctx, cfg.PolicyBundlePath, filepath.Base(cfg.PolicyBundlePath), settings)
	}
	return policyopa.NewEngine(ctx, settings)
}
