package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/banshee-data/roommodes/internal/api"
	"github.com/banshee-data/roommodes/internal/config"
	"github.com/banshee-data/roommodes/internal/db"
	"github.com/banshee-data/roommodes/internal/monitoring"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/rpc"
	"github.com/banshee-data/roommodes/internal/version"
)

// serveFlags are the flags of the serve subcommand.
type serveFlags struct {
	listen        string
	grpcListen    string
	dbPath        string
	configPath    string
	logLevel      string
	logFormat     string
	sweepInterval time.Duration
}

func parseServeFlags(args []string) (*serveFlags, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	f := &serveFlags{}
	fs.StringVar(&f.listen, "listen", ":8080", "HTTP listen address")
	fs.StringVar(&f.grpcListen, "grpc-listen", ":50051", "gRPC listen address (empty to disable)")
	fs.StringVar(&f.dbPath, "db", "", "Path to the sqlite database for presets and snapshots (empty to disable)")
	fs.StringVar(&f.configPath, "config", "", "Engine config JSON file (defaults built in)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "console", "Log format: console or json")
	fs.DurationVar(&f.sweepInterval, "session-sweep", time.Minute, "Interval between idle session sweeps")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.listen == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if f.sweepInterval <= 0 {
		return nil, fmt.Errorf("-session-sweep must be positive, got %s", f.sweepInterval)
	}
	return f, nil
}

func runServe(args []string, stdout io.Writer) error {
	f, err := parseServeFlags(args)
	if err != nil {
		return err
	}

	logger, err := monitoring.NewLogger(f.logLevel, f.logFormat)
	if err != nil {
		return err
	}
	monitoring.UseZap(logger)
	defer monitoring.Sync()

	cfg := config.EmptyEngineConfig()
	if f.configPath != "" {
		if cfg, err = config.LoadEngineConfig(f.configPath); err != nil {
			return err
		}
	}
	engine, err := roommodes.NewEngine(cfg.ToCoreConfig())
	if err != nil {
		return err
	}

	var database *db.DB
	if f.dbPath != "" {
		database, err = db.NewDB(f.dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
	}

	server := api.NewServer(api.Options{Engine: engine, Config: cfg, DB: database})
	monitoring.Logf("%s starting", version.String())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// idle session sweeper
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Sessions().Run(ctx, f.sweepInterval)
		monitoring.Logf("session sweeper stopped")
	}()

	// gRPC server goroutine
	if f.grpcListen != "" {
		lis, err := net.Listen("tcp", f.grpcListen)
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("failed to listen on %s: %w", f.grpcListen, err)
		}
		grpcServer := grpc.NewServer(grpc.UnaryInterceptor(rpc.LoggingInterceptor()))
		rpc.RegisterService(grpcServer, rpc.NewServer(engine, server.Fields(), cfg.GetRequestTimeout(), cfg.GetMaxFrequencyLimit()))

		wg.Add(1)
		go func() {
			defer wg.Done()
			monitoring.Logf("gRPC server listening on %s", f.grpcListen)
			if err := grpcServer.Serve(lis); err != nil {
				monitoring.Logf("gRPC server error: %v", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			grpcServer.GracefulStop()
			monitoring.Logf("gRPC server stopped")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		httpServer := &http.Server{
			Addr:              f.listen,
			Handler:           api.LoggingMiddleware(server.ServeMux()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			monitoring.Logf("HTTP server listening on %s", f.listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		monitoring.Logf("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			monitoring.Logf("HTTP server shutdown error: %v", err)
			if err := httpServer.Close(); err != nil {
				monitoring.Logf("HTTP server force close error: %v", err)
			}
		}
		monitoring.Logf("HTTP server routine stopped")
	}()

	wg.Wait()
	fmt.Fprintln(stdout, "Graceful shutdown complete")
	return nil
}
