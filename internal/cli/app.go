package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/client"
	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/engine"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/logging"
	"github.com/rshade/needle/internal/storage"
	"github.com/rshade/needle/pkg/version"
)

// app bundles the search stack built from the effective config.
type app struct {
	cfg          *config.Config
	client       *client.Client
	kv           storage.KVCloser
	cache        *cache.Store
	orchestrator *engine.Orchestrator
	metadata     *engine.MetadataLoader
}

// newApp wires client, storage, cache, orchestrator and metadata loader.
// A storage backend that cannot be opened disables caching with a warning
// instead of failing the command. opts are passed to the orchestrator.
func newApp(cmd *cobra.Command, opts ...engine.OrchestratorOption) (*app, error) {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	log := logging.FromContext(cmd.Context())

	c := client.New(cfg.Service.Endpoint,
		client.WithTimeout(cfg.Service.Timeout),
		client.WithUserAgent("needle/"+version.GetVersion()),
		client.WithLogger(*log),
	)

	a := &app{cfg: cfg, client: c}

	storeOpts := append(cfg.CacheOptions(), cache.WithLogger(*log))
	if cfg.Cache.Enabled {
		kv, openErr := storage.Open(cfg.StorageOptions())
		if openErr != nil {
			log.Warn().Err(openErr).Str("backend", cfg.Storage.Backend).
				Msg("cache storage unavailable, caching disabled")
		} else {
			a.kv = kv
		}
	}
	if a.kv != nil {
		a.cache = cache.NewStore(a.kv, storeOpts...)
	} else {
		a.cache = cache.NewStore(nil, storeOpts...)
	}

	opts = append([]engine.OrchestratorOption{engine.WithLogger(*log)}, opts...)
	a.orchestrator = engine.NewOrchestrator(c, a.cache, opts...)
	a.metadata = engine.NewMetadataLoader(c, *log)
	return a, nil
}

// Close releases the storage backend.
func (a *app) Close() error {
	if a.kv == nil {
		return nil
	}
	if err := a.kv.Close(); err != nil {
		return fmt.Errorf("closing cache storage: %w", err)
	}
	return nil
}
