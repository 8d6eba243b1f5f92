package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/joepstevens0/inf-masterproef/config"
	"github.com/joepstevens0/inf-masterproef/logger"
	"github.com/joepstevens0/inf-masterproef/pruning"
	"github.com/joepstevens0/inf-masterproef/server"
	"github.com/joepstevens0/inf-masterproef/sim"
	"github.com/joepstevens0/inf-masterproef/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = use config)")
	iterations := flag.Int("iterations", -1, "Growth iterations to run (-1 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	pruneRule := flag.String("prune-rule", "", "Prune rule applied after the last iteration (empty = use config)")
	spalier := flag.Bool("spalier", false, "Train the plant as a spalier after every iteration")
	serve := flag.Bool("serve", false, "Serve the simulation over a websocket instead of exiting")
	addr := flag.String("addr", "", "Listen address for -serve (empty = use config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (empty = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		logger.Init("info", "")
		logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg := config.Cfg()

	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *iterations >= 0 {
		cfg.Run.Iterations = *iterations
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *pruneRule != "" {
		cfg.Run.PruneRule = *pruneRule
	}
	if *spalier {
		cfg.Run.Spalier = true
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	lc := logger.DefaultFileConfig(cfg.Logging.File)
	lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays = cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups, cfg.Logging.MaxAgeDays
	logger.InitWithFileConfig(cfg.Logging.Level, lc)
	defer logger.Sync()

	if err := run(cfg, *serve); err != nil {
		logger.Error("run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, serve bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rule pruning.Rule
	if cfg.Run.PruneRule != "" {
		r, err := pruning.ParseRule(cfg.Run.PruneRule)
		if err != nil {
			return err
		}
		rule = r
	}

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	s := sim.New(cfg, sim.Options{Logger: logger.Log, Output: output})

	logger.Info("starting growth",
		zap.Uint64("seed", cfg.Seed),
		zap.Int("iterations", cfg.Run.Iterations),
		zap.Bool("spalier", cfg.Run.Spalier),
		zap.String("output_dir", output.Dir()),
	)
	if err := s.Run(ctx, cfg.Run.Iterations); err != nil {
		logger.Warn("growth interrupted", zap.Int("iteration", s.Iteration()), zap.Error(err))
		return nil
	}

	if cfg.Run.PruneRule != "" {
		s.PruneByRule(rule)
	}

	if err := output.WriteBranches(s.Iteration(), s.BranchViews()); err != nil {
		return err
	}
	if layer := cfg.Telemetry.ShadowLayer; layer >= 0 {
		res := s.Environment().Resolution()
		if err := output.WriteShadowSlice(layer, res.X, s.DebugTexture(layer)); err != nil {
			return err
		}
	}

	logger.Info("growth finished",
		zap.Int("iterations", s.Iteration()),
		zap.Int("metamers", s.Plant().TotalMetamers()),
		zap.Int("buds", s.Plant().Root().TotalBuds()),
	)

	if !serve {
		return nil
	}
	return server.New(s, logger.Log.Named("server")).ListenAndServe(ctx, cfg.Server.Addr)
}
