package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sixhats/internal/domain"
	"sixhats/internal/usecase/chat"
)

type Config struct {
	OpenAIKey       string
	OpenAIBaseURL   string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	HTTPAddr        string
	TelegramToken   string
	AdminUserIDs    []int64
	AllowedUserIDs  []int64
	LogLevel        string
	Personas        map[domain.PersonaID]string

	// Warnings lists settings Load skipped or fell back on; the caller logs
	// them once a logger exists.
	Warnings []string
}

// ModelConfig is the slice of the configuration sent with every completion.
func (c Config) ModelConfig() chat.ModelConfig {
	return chat.ModelConfig{
		Model:           c.Model,
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}

type fileConfig struct {
	OpenAI struct {
		APIKey          string   `yaml:"api_key"`
		BaseURL         string   `yaml:"base_url"`
		Model           string   `yaml:"model"`
		Temperature     *float32 `yaml:"temperature"`
		MaxOutputTokens int      `yaml:"max_output_tokens"`
	} `yaml:"openai"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Telegram struct {
		Token          string  `yaml:"token"`
		AdminUserIDs   []int64 `yaml:"admin_user_ids"`
		AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
	} `yaml:"telegram"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Personas map[string]string `yaml:"personas"`
}

func Default() Config {
	return Config{
		Model:           "gpt-4o-mini",
		Temperature:     chat.DefaultTemperature,
		MaxOutputTokens: chat.DefaultMaxOutputTokens,
		HTTPAddr:        ":8080",
		LogLevel:        "info",
	}
}

// Load layers defaults, the optional YAML file at configPath, the optional
// .env file at envPath and the process environment, in that order. Empty
// paths are skipped.
func Load(configPath, envPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := loadFile(configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	if envPath != "" {
		if err := loadDotEnv(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			cfg.warnf("could not read %s: %v", envPath, err)
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.OpenAIKey == "" {
		return errors.New("openai api key is required")
	}
	if err := c.ModelConfig().Validate(); err != nil {
		return err
	}
	for id := range c.Personas {
		if !id.Known() {
			return &domain.UnknownPersonaError{ID: id}
		}
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	setString(&cfg.OpenAIKey, fc.OpenAI.APIKey)
	setString(&cfg.OpenAIBaseURL, fc.OpenAI.BaseURL)
	setString(&cfg.Model, fc.OpenAI.Model)
	if fc.OpenAI.Temperature != nil {
		cfg.Temperature = *fc.OpenAI.Temperature
	}
	if fc.OpenAI.MaxOutputTokens != 0 {
		cfg.MaxOutputTokens = fc.OpenAI.MaxOutputTokens
	}
	setString(&cfg.HTTPAddr, fc.HTTP.Addr)
	setString(&cfg.TelegramToken, fc.Telegram.Token)
	if len(fc.Telegram.AdminUserIDs) > 0 {
		cfg.AdminUserIDs = fc.Telegram.AdminUserIDs
	}
	if len(fc.Telegram.AllowedUserIDs) > 0 {
		cfg.AllowedUserIDs = fc.Telegram.AllowedUserIDs
	}
	setString(&cfg.LogLevel, fc.Log.Level)

	if len(fc.Personas) > 0 {
		cfg.Personas = make(map[domain.PersonaID]string, len(fc.Personas))
		for id, instruction := range fc.Personas {
			cfg.Personas[domain.PersonaID(strings.ToLower(strings.TrimSpace(id)))] = instruction
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.OpenAIKey, os.Getenv("OPENAI_API_KEY"))
	setString(&cfg.OpenAIBaseURL, os.Getenv("OPENAI_BASE_URL"))
	setString(&cfg.Model, os.Getenv("OPENAI_MODEL"))
	cfg.Temperature = cfg.getenvFloatDefault("OPENAI_TEMPERATURE", cfg.Temperature)
	cfg.MaxOutputTokens = cfg.getenvIntDefault("MAX_TOKENS", cfg.MaxOutputTokens)
	setString(&cfg.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&cfg.TelegramToken, os.Getenv("TELEGRAM_BOT_TOKEN"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))

	if ids := cfg.parseIDs(os.Getenv("ADMIN_USER_IDS")); len(ids) > 0 {
		cfg.AdminUserIDs = ids
	}
	if ids := cfg.parseIDs(os.Getenv("ALLOWED_TELEGRAM_USER_IDS")); len(ids) > 0 {
		cfg.AllowedUserIDs = ids
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Config) parseIDs(raw string) []int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			c.warnf("skipping user id %q: %v", p, err)
			continue
		}
		ids = append(ids, v)
	}
	return ids
}

func (c *Config) getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.warnf("invalid int for %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func (c *Config) getenvFloatDefault(key string, def float32) float32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		c.warnf("invalid float for %s=%q, using default %.2f", key, v, def)
		return def
	}
	return float32(f)
}

func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, val)
		}
	}
	return scanner.Err()
}

func parseEnvLine(line string) (string, string, bool) {
	if strings.HasPrefix(line, "export ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	}
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	val := strings.TrimSpace(parts[1])
	val = strings.Trim(val, `"'`)
	if key == "" {
		return "", "", false
	}
	return key, val, true
}
