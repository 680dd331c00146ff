package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/propbot/internal/pipeline"
)

// Config es la configuración completa del bot.
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	API       APIConfig       `yaml:"api"`
	Discord   DiscordConfig   `yaml:"discord"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// BotConfig controla el comportamiento general del run.
type BotConfig struct {
	Sports          []string `yaml:"sports"`           // sport keys del API de odds
	IntervalMinutes int      `yaml:"interval_minutes"` // entre runs en modo loop
}

// APIConfig contiene el API de odds.
type APIConfig struct {
	OddsBase string `yaml:"odds_base"`
	OddsKey  string `yaml:"odds_key"` // normalmente via ODDS_API_KEY
}

// DiscordConfig controla el posteo de tickets.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"` // vacío deshabilita el posteo
}

// NarrativeConfig controla la generación de texto con LLM.
type NarrativeConfig struct {
	APIKey  string `yaml:"api_key"` // vacío deshabilita la narrativa
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// StorageConfig controla dónde se persiste el estado.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// PipelineConfig expone los knobs del pipeline que se tunean en operación.
// Los pesos finos de scoring quedan en los defaults del paquete pipeline.
type PipelineConfig struct {
	MaxTickets      int     `yaml:"max_tickets"`
	MaxLegs         int     `yaml:"max_legs"`
	MaxSingles      int     `yaml:"max_singles"`
	SingleMinConf   float64 `yaml:"single_min_conf"`
	Stake           float64 `yaml:"stake"`
	TooLateMinutes  float64 `yaml:"too_late_minutes"`
	LastCallMinutes float64 `yaml:"last_call_minutes"`

	Stages pipeline.StageToggles `yaml:"stages"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys sensibles.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	cfg.Pipeline.Stages = pipeline.AllStages()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// RunInterval devuelve el intervalo entre runs como time.Duration.
func (c *Config) RunInterval() time.Duration {
	return time.Duration(c.Bot.IntervalMinutes) * time.Minute
}

// PipelineConfig arma la configuración del pipeline: defaults de producción
// más los knobs del YAML.
func (c *Config) PipelineConfig() pipeline.Config {
	p := pipeline.DefaultConfig()
	if c.Pipeline.MaxTickets > 0 {
		p.MaxTickets = c.Pipeline.MaxTickets
	}
	if c.Pipeline.MaxLegs > 0 {
		p.MaxLegs = c.Pipeline.MaxLegs
	}
	if c.Pipeline.MaxSingles > 0 {
		p.MaxSingles = c.Pipeline.MaxSingles
	}
	if c.Pipeline.SingleMinConf > 0 {
		p.SingleMinConf = c.Pipeline.SingleMinConf
	}
	if c.Pipeline.Stake > 0 {
		p.Stake = c.Pipeline.Stake
	}
	if c.Pipeline.TooLateMinutes > 0 {
		p.TooLateMinutes = c.Pipeline.TooLateMinutes
	}
	if c.Pipeline.LastCallMinutes > 0 {
		p.LastCallMinutes = c.Pipeline.LastCallMinutes
	}
	p.Stages = c.Pipeline.Stages
	return p
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		cfg.API.OddsKey = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Narrative.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if len(cfg.Bot.Sports) == 0 {
		cfg.Bot.Sports = []string{"basketball_nba"}
	}
	if cfg.Bot.IntervalMinutes <= 0 {
		cfg.Bot.IntervalMinutes = 60
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "propbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
