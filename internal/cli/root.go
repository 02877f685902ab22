package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/quire/internal/logging"
	"github.com/ppiankov/quire/internal/model"
	"github.com/ppiankov/quire/internal/pipeline"
	"github.com/ppiankov/quire/internal/store"
)

const version = "quire v0.1.0"

var (
	cfgFile string
	verbose bool
	dbPath  string
	logMode string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Quire - card curation and narrative outlines for long-form writing",
	Long: `Quire turns a pile of harvested research cards into the skeleton of a book.

It groups staging cards into topical clusters, extracts themes and
narrative arcs, reports coverage gaps, proposes an outline, orders cards
for drafting and suggests which chapter each loose card belongs to.

Every result is a deterministic keyword heuristic over your own cards.
An optional LLM brief can describe an outline but never changes it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Quire.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.quire/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "card store path (overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "", "log mode: dev, prod or nop (overrides logging.mode)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("logging.mode", rootCmd.PersistentFlags().Lookup("log"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	_ = godotenv.Load()

	if err := setDefaults(model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".quire"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match QUIRE_*, e.g. QUIRE_CLUSTER_MAX_CLUSTERS
	viper.SetEnvPrefix("QUIRE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The API key never lives in the config file
	_ = viper.BindEnv("llm.api_key", "QUIRE_LLM_API_KEY", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default with viper so env vars can override
// keys that appear in no config file
func setDefaults(cfg *model.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	setDefaultTree("", tree)
	return nil
}

func setDefaultTree(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaultTree(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig resolves the effective configuration and validates it
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// app is everything a command needs, opened from the effective config
type app struct {
	cfg      *model.Config
	log      *logging.Logger
	store    *store.Store
	pipeline *pipeline.Pipeline
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging.Mode)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, st, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, store: st, pipeline: p}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", "error", err)
	}
	a.log.Sync()
}

// render writes v to path in the requested format. Markdown is produced by
// md; JSON and YAML marshal v directly.
func (a *app) render(path, format string, v any, md func(w io.Writer) error) error {
	r := a.pipeline.Renderer()
	switch format {
	case pipeline.FormatJSON:
		return r.ToFile(path, func(w io.Writer) error { return r.RenderJSON(w, v) })
	case pipeline.FormatYAML:
		return r.ToFile(path, func(w io.Writer) error { return r.RenderYAML(w, v) })
	case pipeline.FormatMarkdown, "markdown":
		return r.ToFile(path, md)
	default:
		return fmt.Errorf("unknown format: %s (supported: json, md, yaml)", format)
	}
}
