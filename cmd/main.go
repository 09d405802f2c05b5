package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"tokamak"
	"tokamak/config"
	"tokamak/debug"
	"tokamak/utils"
)

var (
	verbose    bool
	configPath string
	jsonPath   string
	htmlPath   string
	pngPath    string
	serveAddr  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tokamak",
	Short: "1-D plasma transport time stepper",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = utils.NewLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation to t_final",
	Long: `Loads the configuration (defaults when --config is omitted), evolves the
selected profiles with the configured solver and writes the record.

Example:
  tokamak run --config iter.yaml --json out.json --html out.html`,
	RunE: runSim,
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(config.Default()); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every solver iteration")
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "write the record as JSON")
	runCmd.Flags().StringVar(&htmlPath, "html", "", "write charts as HTML")
	runCmd.Flags().StringVar(&pngPath, "png", "", "write final profiles as PNG")
	runCmd.Flags().StringVar(&serveAddr, "serve", "", "serve charts on this address after the run")
	rootCmd.AddCommand(runCmd, defaultsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sim, err := tokamak.NewSim(cfg, logger)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	record, runErr := sim.Run(ctx)
	// 失败时仍然输出已接受的步
	if err := write(record); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("done",
		zap.Int("steps", record.Len()-1),
		zap.Float64("t", record.Time[record.Len()-1]),
	)
	if serveAddr == "" {
		return nil
	}
	charts := &debug.Charts{Record: record, Logger: logger}
	srv := &http.Server{Addr: serveAddr, Handler: http.HandlerFunc(charts.Handler)}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	logger.Info("serving charts", zap.String("addr", serveAddr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func write(record *debug.Record) error {
	if record == nil {
		return nil
	}
	outputs := []struct {
		path   string
		render func(f *os.File) error
	}{
		{jsonPath, func(f *os.File) error { return record.Render(f) }},
		{htmlPath, func(f *os.File) error { return (&debug.Charts{Record: record, Logger: logger}).Render(f) }},
		{pngPath, func(f *os.File) error { return record.Plot(f) }},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		f, err := os.Create(o.path)
		if err != nil {
			return err
		}
		err = o.render(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", o.path, err)
		}
		logger.Info("wrote", zap.String("path", o.path))
	}
	return nil
}
