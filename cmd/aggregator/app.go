package main

import (
	"context"

	"github.com/jmgilman/go/config"
	"github.com/jmgilman/go/content"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
	"github.com/jmgilman/go/fs/minio"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/nfc"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
	"github.com/jmgilman/go/worker"
)

// app is a running engine built from a configuration.
type app struct {
	cfg      *config.Config
	registry *store.MemoryRegistry
	manager  *content.Manager
	logger   *logging.Logger
}

func (o *rootOptions) open(ctx context.Context) (*app, error) {
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	logCfg, err := cfg.Engine.LogConfig()
	if err != nil {
		return nil, err
	}
	if o.LogLevel != "" {
		if logCfg.Level, err = logging.ParseLogLevel(o.LogLevel); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "invalid --log-level")
		}
	}
	logger := logging.NewLogger(logCfg)

	filesystem, err := openStorage(cfg.Engine.Storage)
	if err != nil {
		return nil, err
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	cache, err := nfc.New(cfg.Engine.NFCConfig(), nfc.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	accessor := transfer.NewAccessor(filesystem,
		transfer.WithFetcher(transfer.NewHTTPFetcher(cfg.Engine.HTTPConfig(), logger)),
		transfer.WithLogger(logger),
	)
	mgr, err := content.NewManager(registry, accessor,
		content.WithLogger(logger),
		content.WithNFC(cache),
		content.WithPool(worker.NewPool(cfg.Engine.PoolConfig(), worker.WithLogger(logger))),
		content.WithFetchLimit(cfg.Engine.FetchLimit),
	)
	if err != nil {
		return nil, err
	}
	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, registry: registry, manager: mgr, logger: logger}, nil
}

func (a *app) Close() error {
	return a.manager.Close()
}

// openStorage returns the content backend selected by cfg.
func openStorage(cfg config.StorageConfig) (core.FS, error) {
	switch cfg.Type {
	case config.StorageLocal:
		return billy.NewLocal(cfg.Root), nil
	case config.StorageMinIO:
		fs, err := minio.NewMinIO(minio.Config{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Prefix:    cfg.Prefix,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to open minio storage")
		}
		return fs, nil
	default:
		return billy.NewMemory(), nil
	}
}
