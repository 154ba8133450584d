package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AnuParkACar/libro-replication/internal/buildtool"
	"github.com/AnuParkACar/libro-replication/internal/config"
	"github.com/AnuParkACar/libro-replication/internal/gen"
	"github.com/AnuParkACar/libro-replication/internal/pipeline"
	"github.com/AnuParkACar/libro-replication/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workDir    string
	dbPath     string
	samples    int
	apiKey     string
	replayFile string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "libro",
	Short: "libro - bug report to bug-reproducing test",
	Long: `libro turns natural-language bug reports into executable
bug-reproducing tests.

For each bug it samples an LLM for candidate test methods, splices each
candidate into the most lexically similar existing test class, runs it
against the buggy and the fixed revision, and keeps the candidates that
fail before the fix and pass after it. Survivors are clustered by failure
signature and ranked by agreement and bug-report overlap.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", "", "scratch directory for checkouts (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the result database (overrides config)")
	rootCmd.PersistentFlags().IntVar(&samples, "samples", 0, "candidate samples per bug (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "generator API key (defaults to $GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&replayFile, "replay", "", "JSON array of pre-generated samples to replay instead of calling the generator")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(rankCmd)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if workDir != "" {
		cfg.Pipeline.WorkDir = workDir
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if samples > 0 {
		cfg.Generation.SamplesPerBug = samples
	}
	return cfg, nil
}

// newGenerator picks the generator backend: a replay file when given,
// otherwise the live model.
func newGenerator(ctx context.Context, cfg *config.Config) (gen.Generator, error) {
	if replayFile != "" {
		data, err := os.ReadFile(replayFile)
		if err != nil {
			return nil, fmt.Errorf("reading replay file: %w", err)
		}
		var replay []string
		if err := json.Unmarshal(data, &replay); err != nil {
			return nil, fmt.Errorf("parsing replay file: %w", err)
		}
		if len(replay) == 0 {
			return nil, fmt.Errorf("replay file %s holds no samples", replayFile)
		}
		return &gen.Static{Samples: replay}, nil
	}

	key := apiKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("no generator available: set --api-key, $GEMINI_API_KEY, or --replay")
	}
	return gen.NewGenAI(ctx, key, cfg.Generation.Model,
		cfg.Generation.MaxTokens, cfg.Generation.Temperature)
}

// newPipeline assembles the pipeline and its store from config plus flags.
// The caller owns closing the returned store.
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, *store.Store, error) {
	g, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	tool := buildtool.NewDefects4J(cfg.Defects4J.Binary, buildtool.Timeouts{
		Checkout: cfg.Defects4J.CheckoutTimeout(),
		Compile:  cfg.Defects4J.CompileTimeout(),
		Test:     cfg.Defects4J.TestTimeout(),
	}, logger)
	p, err := pipeline.New(cfg, logger, tool, g, st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return p, st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
