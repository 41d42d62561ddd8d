package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zjrosen/svcreg/internal/cachemanager"
	"github.com/zjrosen/svcreg/internal/config"
	"github.com/zjrosen/svcreg/internal/infrastructure/sqlite"
	"github.com/zjrosen/svcreg/internal/registry"
	"github.com/zjrosen/svcreg/internal/replication"
	"github.com/zjrosen/svcreg/internal/serializer"
	"github.com/zjrosen/svcreg/internal/service"
	"github.com/zjrosen/svcreg/internal/tracing"
)

// openRegistry builds a registry from the resolved config. The returned
// cleanup closes the registry and any replication or tracing resources
// behind it.
func openRegistry(extraOpts ...registry.Option) (*registry.Registry, func(), error) {
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.Registry.Root, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating registry root: %w", err)
	}

	format := cfg.Registry.Format
	if format == "" {
		format = "json"
	}
	// Save encodes through the first serializer that accepts the
	// definition, so the configured format's serializer must lead.
	serializers := []serializer.Serializer{serializer.NewJSON(), serializer.NewYAML()}
	if format == "yaml" {
		serializers = []serializer.Serializer{serializer.NewYAML(), serializer.NewJSON()}
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	opts := make([]registry.Option, 0, len(extraOpts)+2)

	strategy, strategyCleanup, err := buildStrategy(cfg.Replication)
	if err != nil {
		return nil, nil, err
	}
	if strategyCleanup != nil {
		cleanups = append(cleanups, strategyCleanup)
	}
	if strategy != nil {
		opts = append(opts, registry.WithReplication(strategy))
	}

	provider, err := buildTracing(cfg.Tracing)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if provider != nil {
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(ctx)
		})
		opts = append(opts, registry.WithTracer(provider.Tracer()))
	}

	opts = append(opts, extraOpts...)

	reg, err := registry.New(cfg.Registry.Root, format, serializers, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { _ = reg.Close() })

	return reg, cleanup, nil
}

// buildStrategy maps the replication config onto a concrete strategy.
func buildStrategy(rep config.ReplicationConfig) (replication.Strategy, func(), error) {
	switch rep.Mode {
	case "", "none":
		return nil, nil, nil
	case "memory":
		ttl := rep.CacheTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		cache := cachemanager.NewInMemoryCacheManager[string, service.Definition]("replication", ttl, ttl)
		return replication.NewCacheStrategy(cache, ttl), nil, nil
	case "sqlite":
		db, err := sqlite.Open(rep.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening replication store: %w", err)
		}
		return replication.NewStoreStrategy(db.DefinitionStore()), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown replication mode %q", rep.Mode)
	}
}

// buildTracing returns a provider, or nil when tracing is disabled.
func buildTracing(tc tracing.Config) (*tracing.Provider, error) {
	if !tc.Enabled {
		return nil, nil
	}
	if tc.Exporter == "file" && tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tc)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	return provider, nil
}
