// ============================================================================
// Dynapool CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Provides the poolctl command line interface, based on Cobra.
//
// Command Structure:
//   poolctl                         # Root command
//   ├── run                         # Start a pool and keep it running
//   │   └── --config, -c          # Specify config file
//   ├── status                      # Show the configuration a pool would start with
//   ├── resize                      # Validate a bound change on an in-process pool
//   │   ├── --lower
//   │   └── --upper
//   ├── --version                  # Display version information
//   └── --help                     # Display help information
//
// Configuration Management:
//   Uses YAML format config file (default: configs/default.yaml), see
//   internal/config. Fields:
//   - pool: initial_size, lower, upper
//   - metrics: enabled, port
//   - log: level
//
// run Command:
//   Starts a pool, including:
//   1. Load config file
//   2. Construct pool.Pool with the configured bounds
//   3. Start Metrics HTTP server (if enabled)
//   4. Listen for system signals (SIGINT, SIGTERM)
//   5. Gracefully stop and drain
//
//   Examples:
//     ./poolctl run
//     ./poolctl run -c custom-config.yaml
//
// status / resize Command:
//   Neither reaches a process started by run; there is no remote control
//   plane. status prints the settings read from the config file. resize
//   constructs a pool in-process from the config file, applies the
//   requested bound change to it, and reports the result.
//
// Signal Handling:
//   run command captures the following signals and gracefully shuts down:
//   - SIGINT (Ctrl+C): user interrupt
//   - SIGTERM: system terminate request
//
// ============================================================================

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ChuLiYu/dynapool/internal/config"
	"github.com/ChuLiYu/dynapool/internal/logging"
	"github.com/ChuLiYu/dynapool/internal/metrics"
	"github.com/ChuLiYu/dynapool/pkg/pool"
)

var configFile string

// BuildCLI constructs the poolctl root command.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "poolctl",
		Short:   "poolctl: run and inspect a dynapool worker pool",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildStatusCommand())
	rootCmd.AddCommand(buildResizeCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a pool and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPool(configFile)
		},
	}
	return cmd
}

func runPool(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(cfg.Log.Level)
	log.Info("starting pool", "initial_size", cfg.Pool.InitialSize, "lower", cfg.Pool.Lower, "upper", cfg.Pool.Upper)

	opts := []pool.Option{pool.WithLogger(log)}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		opts = append(opts, pool.WithObserver(collector))
	}

	p := pool.New(cfg.Pool.InitialSize, opts...)

	if cfg.Pool.Upper >= 0 {
		if err := p.SetUpperLimit(cfg.Pool.Upper); err != nil {
			return fmt.Errorf("failed to apply upper bound: %w", err)
		}
	}
	if cfg.Pool.Lower > 0 {
		if err := p.SetLowerLimit(cfg.Pool.Lower); err != nil {
			return fmt.Errorf("failed to apply lower bound: %w", err)
		}
	}

	if collector != nil {
		go func() {
			log.Info("starting metrics server", "port", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port, collector.Registry()); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("received shutdown signal, draining pool")
	p.Stop()
	p.Join()
	log.Info("pool stopped")

	return nil
}

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configuration a pool would start with",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(configFile)
		},
	}
	return cmd
}

func showStatus(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Pool configuration:")
	fmt.Printf("  config file:   %s\n", path)
	fmt.Printf("  initial size:  %d\n", cfg.Pool.InitialSize)
	fmt.Printf("  lower bound:   %d\n", cfg.Pool.Lower)
	if cfg.Pool.Upper < 0 {
		fmt.Println("  upper bound:   unbounded")
	} else {
		fmt.Printf("  upper bound:   %d\n", cfg.Pool.Upper)
	}
	fmt.Printf("  log level:     %s\n", cfg.Log.Level)
	if cfg.Metrics.Enabled {
		fmt.Printf("  metrics:       enabled on :%d/metrics\n", cfg.Metrics.Port)
	} else {
		fmt.Println("  metrics:       disabled")
	}

	return nil
}

func buildResizeCommand() *cobra.Command {
	var lower, upper int

	cmd := &cobra.Command{
		Use:   "resize",
		Short: "Validate a lower/upper bound change against a config file's pool",
		Long: `resize constructs a pool from the config file's initial_size, applies
the requested bound change, and reports the result. It exists for operators
to sanity-check a bound change offline; it has no way to reach an already
running poolctl run process, since this core defines no remote control
plane.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setLower := cmd.Flags().Changed("lower")
			setUpper := cmd.Flags().Changed("upper")
			if !setLower && !setUpper {
				return fmt.Errorf("specify at least one of --lower or --upper")
			}
			return resizeDryRun(configFile, lower, setLower, upper, setUpper)
		},
	}

	cmd.Flags().IntVar(&lower, "lower", 0, "new lower bound")
	cmd.Flags().IntVar(&upper, "upper", 0, "new upper bound")

	return cmd
}

func resizeDryRun(path string, lower int, setLower bool, upper int, setUpper bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	p := pool.New(cfg.Pool.InitialSize)
	defer p.Close()

	if cfg.Pool.Upper >= 0 {
		_ = p.SetUpperLimit(cfg.Pool.Upper)
	}
	if cfg.Pool.Lower > 0 {
		_ = p.SetLowerLimit(cfg.Pool.Lower)
	}

	newLower, newUpper := cfg.Pool.Lower, cfg.Pool.Upper
	if setUpper {
		if err := p.SetUpperLimit(upper); err != nil {
			return fmt.Errorf("resize rejected: %w", err)
		}
		newUpper = upper
	}
	if setLower {
		if err := p.SetLowerLimit(lower); err != nil {
			return fmt.Errorf("resize rejected: %w", err)
		}
		newLower = lower
	}

	fmt.Printf("resize accepted: workers=%d lower=%d upper=%d\n", p.WorkersCount(), newLower, newUpper)
	return nil
}
