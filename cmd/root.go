package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "brainbridge"
)

type Config struct {
	Store *StoreConfig `mapstructure:"store" validate:"required"`
	Match *MatchConfig `mapstructure:"match" validate:"required"`
	AI    *AIConfig    `mapstructure:"ai"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite"`
	Path   string `mapstructure:"path" validate:"required_if=Driver sqlite"`
}

type MatchConfig struct {
	// Threshold hides matches scoring below it. Zero is preview mode.
	Threshold     float64       `mapstructure:"threshold" validate:"gte=0,lte=100"`
	Workers       int           `mapstructure:"workers" validate:"gte=0"`
	AssistTimeout time.Duration `mapstructure:"assist-timeout" validate:"gte=0"`
	ExcludeFile   string        `mapstructure:"exclude-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string        `mapstructure:"api-key" json:"-"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	Model             string        `mapstructure:"model"`
	MaxRetries        int           `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength      int           `mapstructure:"max-log-length" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "brainbridge matches neurodivergent job-seekers to job postings by cognitive demand categories",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())
	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is brainbridge.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", app+".db")
	v.SetDefault("match.threshold", 0)
	v.SetDefault("match.workers", 4)
	v.SetDefault("match.assist-timeout", "20s")
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.timeout", "20s")
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"match.threshold":        "JM_THRESHOLD",
		"store.path":             "BRAINBRIDGE_DB",
		"ai.enabled":             "BRAINBRIDGE_AI_ENABLED",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.gemini.model":        "GEMINI_MODEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}
	return nil
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults and environment are enough to run, so only a broken or an
	// explicitly requested file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
