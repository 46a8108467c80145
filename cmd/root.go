package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/assessment-recommender/internal/filtering"
	"github.com/spigell/assessment-recommender/internal/tfidf"
)

const (
	app = "assessor"

	envPrefix = "ASSESSOR"
)

type Config struct {
	Catalog *CatalogConfig    `mapstructure:"catalog"`
	Ranking *RankingConfig    `mapstructure:"ranking"`
	Filters *filtering.Config `mapstructure:"filters"`
	History *HistoryConfig    `mapstructure:"history"`
	Explain *ExplainConfig    `mapstructure:"explain"`
	Metrics *MetricsConfig    `mapstructure:"metrics"`
}

type CatalogConfig struct {
	Source    string        `mapstructure:"source"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type RankingConfig struct {
	TopK        int      `mapstructure:"top-k"`
	MaxTopK     int      `mapstructure:"max-top-k"`
	MaxFeatures int      `mapstructure:"max-features"`
	Fallback    []string `mapstructure:"fallback"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

type ExplainConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessor recommends assessments for a job role from an assessment catalog",
		Long: `assessor matches a free-text job role description against a catalog of assessments
and prints the most relevant ones with a confidence score and a relevance label.`,
		SilenceUsage: true,
	}
)

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

// Version reports the build version.
func Version() string {
	return version
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is assessor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("catalog", "", "catalog file or http(s) URL (default is the built-in sample catalog)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("catalog.source", rootCmd.PersistentFlags().Lookup("catalog"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.source", "")
	v.SetDefault("catalog.user-agent", "")
	v.SetDefault("catalog.timeout", 10*time.Second)

	v.SetDefault("ranking.top-k", 5)
	v.SetDefault("ranking.max-top-k", 10)
	v.SetDefault("ranking.max-features", tfidf.DefaultMaxFeatures)
	v.SetDefault("ranking.fallback", []string{})

	v.SetDefault("filters.categories", []string{})
	v.SetDefault("filters.difficulties", []string{})
	v.SetDefault("filters.max-duration", 0)
	v.SetDefault("filters.exclude", []string{})
	v.SetDefault("filters.exclude-file", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.file", app+"-history.jsonl")

	v.SetDefault("explain.enabled", false)
	v.SetDefault("explain.gemini.api-key", "")
	v.SetDefault("explain.gemini.api-key-file", "")
	v.SetDefault("explain.gemini.model", "")
	v.SetDefault("explain.gemini.max-retries", 3)
	v.SetDefault("explain.gemini.max-log-length", 200)

	v.SetDefault("metrics.listen", "")
}

func initConfig() {
	// A missing .env is fine; it only supplements the environment.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("explain.gemini.api-key-file", envPrefix+"_GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding %s_GEMINI_API_KEY_FILE environment variable: %v", envPrefix, err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Every key has a default, so only an explicitly requested or broken file is fatal.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("empty configuration")
	}

	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}
	if config.Ranking == nil {
		config.Ranking = &RankingConfig{}
	}
	if config.Filters == nil {
		config.Filters = &filtering.Config{}
	}
	if config.History == nil {
		config.History = &HistoryConfig{}
	}
	if config.Explain == nil {
		config.Explain = &ExplainConfig{}
	}
	if config.Explain.Gemini == nil {
		config.Explain.Gemini = &GeminiConfig{}
	}
	if config.Metrics == nil {
		config.Metrics = &MetricsConfig{}
	}

	return config, nil
}
