package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vault-recycler/internal/indexer"
	"vault-recycler/internal/instruction"
	"vault-recycler/internal/observability"
	"vault-recycler/internal/reader"
	"vault-recycler/internal/solana"
	"vault-recycler/internal/storage"
	chstore "vault-recycler/internal/storage/clickhouse"
	"vault-recycler/internal/storage/memory"
	"vault-recycler/internal/storage/migrations"
	pgstore "vault-recycler/internal/storage/postgres"
)

func main() {
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", "", "Solana WebSocket endpoint (empty to poll only)")
	programID := flag.String("program-id", instruction.DefaultProgramID, "Recycling program ID")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (empty to skip activity history)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	interval := flag.Duration("interval", 30*time.Second, "Refresh interval")
	once := flag.Bool("once", false, "Run a single refresh cycle and exit")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, *rpcEndpoint, *wsEndpoint, *programID, *postgresDSN, *clickhouseDSN, *useMemory, *interval, *once)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, rpcEndpoint, wsEndpoint, programID, postgresDSN, clickhouseDSN string, useMemory bool, interval time.Duration, once bool) error {
	rpc := solana.NewHTTPClient(rpcEndpoint)

	var ws solana.WSClient
	if wsEndpoint != "" {
		wsClient, err := solana.NewWSClient(ctx, wsEndpoint, nil)
		if err != nil {
			return fmt.Errorf("create websocket client: %w", err)
		}
		defer wsClient.Close()
		ws = wsClient
	}

	var vaultStore storage.VaultSnapshotStore = memory.NewVaultSnapshotStore()
	var proposalStore storage.ProposalSnapshotStore = memory.NewProposalSnapshotStore()
	var activityStore storage.BurnActivityStore = memory.NewBurnActivityStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		vaultStore = pgstore.NewVaultSnapshotStore(pool)
		proposalStore = pgstore.NewProposalSnapshotStore(pool)

		if clickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
			if err != nil {
				return fmt.Errorf("run clickhouse migrations: %w", err)
			}
			defer conn.Close()
			activityStore = chstore.NewBurnActivityStore(conn)
		} else {
			activityStore = nil
			logger.Println("No ClickHouse DSN, activity history disabled")
		}
	}

	runner := indexer.NewRunner(indexer.RunnerOptions{
		Reader:        reader.NewReader(rpc, programID),
		RPC:           rpc,
		WS:            ws,
		VaultStore:    vaultStore,
		ProposalStore: proposalStore,
		ActivityStore: activityStore,
		Interval:      interval,
		Logger:        logger,
	})

	if once {
		logger.Println("Running single refresh...")
		return runner.RefreshOnce(ctx)
	}

	logger.Println("Starting continuous indexing...")
	return runner.Run(ctx)
}
