// Command bridge runs the voxelwire proxy/server pair: a client-facing
// front end that speaks the real Minecraft wire protocol across versions
// 1.8-1.20 (minus 1.13), and a world-owning back end that the front end
// talks to over a canonical, version-agnostic carrier (SPEC_FULL.md §4.11).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/voxelwire/bridge/internal/block"
	"github.com/voxelwire/bridge/internal/chunk"
	"github.com/voxelwire/bridge/internal/config"
	"github.com/voxelwire/bridge/internal/crypto"
	"github.com/voxelwire/bridge/internal/proxy"
	"github.com/voxelwire/bridge/internal/rcon"
	"github.com/voxelwire/bridge/internal/server"
	"github.com/voxelwire/bridge/internal/telemetry"
)

// version is set at release build time via -ldflags; left as the
// development placeholder otherwise.
var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "bridge.toml", "path to the TOML configuration file")
		worldDir    = flag.String("world-dir", "world-data", "directory region files and other persisted state live under")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.BoolVar(showVersion, "v", false, "print the version and exit (shorthand)")
	flag.Parse()

	if *showVersion {
		fmt.Println("bridge " + version)
		return
	}

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bridge: "+err.Error())
		os.Exit(1)
	}

	log := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	for _, w := range warnings {
		log.Warn(w)
	}

	if err := run(cfg, *worldDir, log); err != nil {
		log.Error("bridge: fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, worldDir string, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.New()

	registry, err := block.NewRegistry(block.SampleLatestKinds())
	if err != nil {
		return fmt.Errorf("bridge: building block registry: %w", err)
	}
	stone, ok := registry.KindByName("minecraft:stone")
	if !ok {
		return fmt.Errorf("bridge: registry has no minecraft:stone kind")
	}
	stoneState := stone.Default().StateID()

	const minY, maxY = 0, 256
	world := server.NewWorld(minY, maxY)

	generate := func(_ context.Context, x, z int32) (*chunk.Chunk, error) {
		c := chunk.NewChunk(x, z, minY, maxY)
		if err := c.FillBlocks(0, 0, 0, 15, 4, 15, stoneState); err != nil {
			return nil, err
		}
		return c, nil
	}

	var limiter *rate.Limiter
	if cfg.Worker.ChunkWorkers > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Worker.ChunkWorkers*4), cfg.Worker.ChunkWorkers*4)
	}
	pipeline := server.NewChunkPipeline(world, cfg.Worker.ChunkWorkers, generate, worldDir, limiter, log)
	defer pipeline.Close()

	backend := server.NewServer(world, metrics, log)

	backendLn, err := net.Listen("tcp", cfg.Server)
	if err != nil {
		return fmt.Errorf("bridge: listening on server address %s: %w", cfg.Server, err)
	}
	go func() {
		if err := backend.Run(ctx, backendLn); err != nil {
			log.Error("bridge: backend listener stopped", "err", err)
		}
	}()
	go backend.RunTickLoop(ctx)

	var keys *crypto.KeyPair
	if cfg.Encryption {
		keys, err = crypto.NewKeyPair()
		if err != nil {
			return fmt.Errorf("bridge: generating server keypair: %w", err)
		}
	}

	frontendCfg := proxy.FrontendConfig{
		Keys:                 keys,
		Encryption:            cfg.Encryption,
		CompressionThreshold: cfg.CompressionThresh,
		MOTD:                 motdOrDefault(cfg.Icon),
		ProtocolName:         "voxelwire-bridge",
		MaxPlayers:           9999,
		PlayerCount:          world.PlayerCount,
		BackendAddr:          cfg.Server,
	}
	frontendLn, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("bridge: listening on client address %s: %w", cfg.Address, err)
	}
	go acceptFrontend(ctx, frontendLn, frontendCfg, log)

	if cfg.RCON.Enabled {
		rconLn, err := net.Listen("tcp", cfg.RCON.Addr)
		if err != nil {
			return fmt.Errorf("bridge: listening on rcon address %s: %w", cfg.RCON.Addr, err)
		}
		rconServer := &rcon.Server{
			Password: cfg.RCON.Password,
			Execute:  func(string) string { return "" }, // no in-world command registry in this sample
			Log:      log,
		}
		go func() {
			if err := rconServer.Serve(rconLn); err != nil {
				log.Warn("bridge: rcon listener stopped", "err", err)
			}
		}()
	}

	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("bridge: metrics listener stopped", "err", err)
		}
	}()

	c := cron.New()
	if _, err := c.AddFunc(everySpec(cfg.Region.AutosaveInterval), func() {
		start := time.Now()
		errs := world.Autosave(worldDir)
		for _, e := range errs {
			log.Warn("bridge: autosave region failed", "err", e)
		}
		log.Info("bridge: autosave complete", "took", time.Since(start), "region_errors", len(errs))
	}); err != nil {
		return fmt.Errorf("bridge: scheduling autosave: %w", err)
	}
	c.Start()
	defer c.Stop()

	log.Info("bridge: listening", "client_addr", cfg.Address, "server_addr", cfg.Server)
	<-ctx.Done()
	log.Info("bridge: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	_ = frontendLn.Close()
	_ = backendLn.Close()
	if errs := world.Autosave(worldDir); len(errs) > 0 {
		log.Warn("bridge: final autosave had errors", "count", len(errs))
	}
	return nil
}

func acceptFrontend(ctx context.Context, ln net.Listener, cfg proxy.FrontendConfig, log *slog.Logger) {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Warn("bridge: frontend accept failed", "err", err)
				return
			}
		}
		go func() {
			if err := proxy.ServeClient(conn, cfg); err != nil {
				log.Debug("bridge: client session ended", "err", err)
			}
		}()
	}
}

// everySpec turns a Duration into the "@every" cron spec robfig/cron
// understands, since autosave-interval is configured as a duration rather
// than a fixed time of day.
func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

func motdOrDefault(icon string) string {
	if icon != "" {
		return icon
	}
	return "A Voxelwire Bridge Server"
}
