// main.go - Shielded pool daemon.
//
// The daemon hosts a single privacy pool: an append-only commitment
// accumulator, a nullifier registry and the three pool operations
// (deposit, withdraw, atomic swap). It exposes:
//   - the indexer JSON-RPC surface on indexer_addr
//   - prometheus metrics and health checks on metrics_addr
//
// State commitments are encoded as 128-byte inscription records on a
// fixed interval so external mirrors can track the accumulator root.
//
// Usage:
//
//	shieldpoold [config.json]
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/styxlabs/shieldpool/internal/indexer"
	"github.com/styxlabs/shieldpool/internal/pool"
	"github.com/styxlabs/shieldpool/internal/prover"
	"github.com/styxlabs/shieldpool/internal/shield"
)

const version = "1.0.0"

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.PoolID == "" {
		id := shield.RandomBytes32()
		cfg.PoolID = hex.EncodeToString(id[:])
		if err := SaveConfig(cfg, configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, closeLogs, err := NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLogs()

	log.Info().Str("version", version).Str("config", configPath).Msg("starting shieldpoold")

	poolID, err := cfg.PoolIDBytes()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid pool id")
	}

	// An external proving service supplies validity proofs; the daemon only
	// verifies them. Without a verifying key every opaque proof is accepted,
	// which is the local development mode.
	var verifier prover.Verifier = prover.AcceptAll{}
	if cfg.VerifyingKeyPath != "" {
		v, err := prover.LoadGroth16Verifier(cfg.VerifyingKeyPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.VerifyingKeyPath).Msg("failed to load verifying key")
		}
		verifier = v
		log.Info().Str("path", cfg.VerifyingKeyPath).Msg("groth16 verifier loaded")
	} else {
		log.Warn().Msg("no verifying key configured, accepting all proofs")
	}

	p := pool.New(pool.Config{PoolID: poolID, MaxTreeHeight: cfg.MaxTreeHeight}, verifier, log)
	metrics := NewMetrics()
	p.SetObserver(metrics)

	health := NewHealthChecker(version)
	health.RegisterComponent("pool", func() error {
		if cfg.MaxTreeHeight <= 0 {
			return nil
		}
		stats := p.Stats()
		capacity := 1 << cfg.MaxTreeHeight
		if stats.LeafCount >= capacity {
			return fmt.Errorf("accumulator full: %d leaves", stats.LeafCount)
		}
		if stats.LeafCount+2 > capacity {
			// One leaf left: deposits still land but swaps no longer fit.
			return fmt.Errorf("%w: accumulator cannot fit a swap", ErrDegraded)
		}
		return nil
	})
	health.RegisterComponent("indexer", func() error { return nil })

	limiter := NewClientRateLimiter(
		cfg.RateLimitTokens,
		cfg.RateLimitRefill,
		time.Duration(cfg.RateLimitPeriodMS)*time.Millisecond,
	)

	rpc := indexer.NewServer(p, log, limiter.Middleware())
	rpcSrv := &http.Server{Addr: cfg.IndexerAddr, Handler: rpc.Handler()}

	opsMux := http.NewServeMux()
	opsMux.Handle("/metrics", metrics.Handler())
	opsMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := CreateHealthResponse(health.CheckHealth())
		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "error" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	})
	opsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: opsMux}

	go func() {
		log.Info().Str("addr", cfg.IndexerAddr).Msg("indexer listening")
		if err := rpcSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("indexer server failed")
		}
	}()
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inscriptionLoop(ctx, p, metrics, log, time.Duration(cfg.InscriptionIntervalSeconds)*time.Second)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := rpcSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("indexer shutdown failed")
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics shutdown failed")
	}
	log.Info().Msg("shieldpoold stopped")
}

// inscriptionLoop publishes the accumulator root on a fixed interval and
// refreshes the state gauges alongside it.
func inscriptionLoop(ctx context.Context, p *pool.Pool, metrics *Metrics, log zerolog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastRoot [32]byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ins := p.Inscription()
			metrics.ObservePool(p.Stats())
			if ins.Root == lastRoot {
				continue
			}
			lastRoot = ins.Root
			record := ins.Encode()
			log.Info().
				Hex("root", ins.Root[:]).
				Uint32("leaf_count", ins.LeafCount).
				Int("record_len", len(record)).
				Msg("state inscription published")
		}
	}
}
