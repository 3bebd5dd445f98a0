package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/postman-echo-client/internal/config"
	"github.com/samvad-hq/postman-echo-client/internal/logger"
	"github.com/samvad-hq/postman-echo-client/internal/probe"
	"github.com/samvad-hq/postman-echo-client/internal/storage"
	"github.com/samvad-hq/postman-echo-client/pkg/endpoints"
	"github.com/samvad-hq/postman-echo-client/pkg/httpclient"
	"github.com/samvad-hq/postman-echo-client/pkg/postmanecho"
	"github.com/samvad-hq/postman-echo-client/pkg/publishers"
)

// Prober is the probe runtime. It loads the probe catalogue, runs passes on
// the configured interval and owns the store and publishers.
type Prober struct {
	cfg      *config.Config
	probes   []probe.Probe
	fanout   *publishers.Fanout
	service  *probe.Service
	interval time.Duration
	log      logger.Logger
	store    storage.Store
}

// NewProber builds a prober runtime from config files.
func NewProber(ctx context.Context, cfg *config.Config, log logger.Logger) (*Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	catalogue, err := probe.LoadCatalogue(cfg.ProbesFile)
	if err != nil {
		return nil, fmt.Errorf("load probe catalogue: %w", err)
	}
	probes := catalogue.Enabled()
	probeIDs := make([]string, 0, len(probes))
	for _, p := range probes {
		probeIDs = append(probeIDs, p.ID)
	}
	log.InfoObj("probe catalogue loaded", "probes_meta", map[string]any{
		"count": len(probeIDs),
		"ids":   probeIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		OutcomeTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"outcome_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	catalogueURIs, err := endpoints.New(cfg.BaseURL)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("endpoint catalogue: %w", err)
	}
	opts := []postmanecho.Option{
		postmanecho.WithEndpoints(catalogueURIs),
		postmanecho.WithLogger(log),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, postmanecho.WithDefaultHeader("User-Agent", cfg.UserAgent))
	}
	client := postmanecho.New(httpclient.NewRestyClient(cfg.Timeout), opts...)

	return &Prober{
		cfg:      cfg,
		probes:   probes,
		fanout:   fanout,
		service:  probe.NewService(client, store, fanout, log),
		interval: cfg.ProbeInterval,
		log:      log,
		store:    store,
	}, nil
}

// buildFanout loads the publishers file. A missing file path leaves the
// prober log-only.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.WarnObj("no publishers file configured; results are only logged", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes one pass, then keeps probing on the interval until ctx is
// cancelled. A zero interval returns after the first pass.
func (p *Prober) Run(ctx context.Context) error {
	if p == nil || p.service == nil {
		return fmt.Errorf("prober is not initialized")
	}
	defer p.close()

	if len(p.probes) == 0 {
		p.log.WarnObj("no probes enabled; nothing to do", "probes_file", p.cfg.ProbesFile)
		return nil
	}

	p.log.InfoObj("prober starting", "prober_state", map[string]any{
		"probes_count":     len(p.probes),
		"publishers_count": p.fanout.Size(),
		"probe_interval":   p.interval.String(),
	})

	err := p.runOnce(ctx)
	if p.interval <= 0 {
		return err
	}
	if err != nil {
		p.log.ErrorObj("initial probe pass failed", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("prober loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctx); err != nil {
				p.log.ErrorObj("scheduled probe pass failed", "error", err)
			}
		}
	}
}

func (p *Prober) runOnce(ctx context.Context) error {
	start := time.Now()
	results, err := p.service.Run(ctx, p.probes)

	passed := 0
	for _, r := range results {
		if r.OK {
			passed++
		}
	}
	p.log.InfoObj("probe pass completed", "pass_meta", map[string]any{
		"probes_count": len(results),
		"passed":       passed,
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return err
}

// close releases the store and publisher clients, logging failures.
func (p *Prober) close() {
	if err := errors.Join(p.store.Close(), p.fanout.Close()); err != nil {
		p.log.ErrorObj("prober shutdown failed", "error", err)
	}
}
