package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sridarsri23/BrainBridge/internal/ai"
	"github.com/sridarsri23/BrainBridge/internal/ai/gemini"
	"github.com/sridarsri23/BrainBridge/internal/logger"
	"github.com/sridarsri23/BrainBridge/internal/matching"
	"github.com/sridarsri23/BrainBridge/internal/metrics"
	"github.com/sridarsri23/BrainBridge/internal/profile"
	"github.com/sridarsri23/BrainBridge/internal/secrets"
)

// deps holds everything a command needs. Fatal on setup errors, like the rest of the CLI.
type deps struct {
	config   *Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	reasoner ai.Reasoner
	store    profile.Store
}

func mustDeps(ctx context.Context, withStore bool) *deps {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	d := &deps{config: config, logger: l, metrics: metrics.New()}

	reasoner, err := newReasoner(ctx, config.AI, l)
	if err != nil {
		l.Warn("reasoning service disabled, using heuristic fallbacks", zap.Error(err))
	}
	if reasoner != nil {
		d.reasoner = reasoner
	}

	if withStore {
		store, err := newStore(config.Store)
		if err != nil {
			l.Fatal("opening the profile store", zap.Error(err))
		}
		d.store = store
	}

	return d
}

func (d *deps) close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("closing the profile store", zap.Error(err))
		}
	}
	_ = d.logger.Sync()
}

func (d *deps) engine() *matching.Engine {
	opts := []matching.Option{
		matching.WithLogger(d.logger),
		matching.WithMetrics(d.metrics),
		matching.WithAssistTimeout(d.config.Match.AssistTimeout),
	}
	if d.reasoner != nil {
		opts = append(opts, matching.WithAssistant(matching.NewReasonerAssistant(d.reasoner)))
	}
	return matching.New(d.store, opts...)
}

// newReasoner returns nil without error when the reasoning service is turned off.
func newReasoner(ctx context.Context, cfg *AIConfig, l *zap.Logger) (*gemini.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY, ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	l.Debug("configuring reasoning service",
		zap.String(logger.FieldProvider, gemini.Provider),
		zap.String(logger.FieldModel, cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
		zap.Float64("ai_requests_per_second", cfg.Gemini.RequestsPerSecond),
	)

	return gemini.NewGenerator(ctx, gemini.Options{
		APIKey:            apiKey,
		Model:             cfg.Gemini.Model,
		MaxRetries:        cfg.Gemini.MaxRetries,
		Timeout:           cfg.Gemini.Timeout,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		MaxLogLength:      cfg.Gemini.MaxLogLength,
		Logger:            l,
	})
}

func newStore(cfg *StoreConfig) (profile.Store, error) {
	if cfg == nil {
		return profile.NewMemoryStore(), nil
	}
	switch cfg.Driver {
	case "", "memory":
		return profile.NewMemoryStore(), nil
	case "sqlite":
		store, err := profile.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// readMap loads a YAML or JSON object. An empty path yields nil.
func readMap(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
