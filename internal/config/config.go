package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	InterpreterPath   string
	SandboxRoot       string
	ExecutionTimeout  time.Duration
	EntryFileName     string
	UseMemoryProblems bool
	ProblemCacheTTL   time.Duration
	QualitySampleRate float64
	QualityMinSamples int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Grader API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("interpreter.path", "python3")
	v.SetDefault("execution_timeout_ms", 3000)
	v.SetDefault("entry_file", "main.py")
	v.SetDefault("use_memory_problems", false)
	v.SetDefault("problem.cache_ttl", "5m")
	v.SetDefault("quality.sample_rate", 0.1)
	v.SetDefault("quality.min_samples", 5)

	ttlString := v.GetString("problem.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid problem cache ttl: %w", err)
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		InterpreterPath:   v.GetString("interpreter.path"),
		SandboxRoot:       v.GetString("sandbox.root"),
		ExecutionTimeout:  time.Duration(timeoutMs) * time.Millisecond,
		EntryFileName:     v.GetString("entry_file"),
		UseMemoryProblems: v.GetBool("use_memory_problems"),
		ProblemCacheTTL:   ttl,
		QualitySampleRate: v.GetFloat64("quality.sample_rate"),
		QualityMinSamples: v.GetInt("quality.min_samples"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.QualitySampleRate < 0 || cfg.QualitySampleRate > 1 {
		return Config{}, fmt.Errorf("quality sample rate must be within [0, 1]")
	}

	if cfg.QualityMinSamples <= 0 {
		cfg.QualityMinSamples = 5
	}

	return cfg, nil
}
