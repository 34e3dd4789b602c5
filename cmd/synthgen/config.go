package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shpitdev/synthgen/internal/app"
	"github.com/shpitdev/synthgen/internal/artifact"
	"github.com/shpitdev/synthgen/internal/textgen"
	"github.com/shpitdev/synthgen/internal/trainer"
)

const defaultGeminiModel = textgen.DefaultModel

type envConfig struct {
	Gemini textgen.Config

	ChunkSize int
	Seed      uint64

	TrainerURL    string
	TrainerToken  string
	TrainerCAPath string

	ArtifactBackend string
	ArtifactDir     string
	SQLiteDSN       string
	S3              artifact.S3Config
}

func loadEnv() (envConfig, error) {
	rps, err := envFloat("TEXTGEN_RATE_LIMIT_RPS", 0)
	if err != nil {
		return envConfig{}, err
	}
	timeout, err := envDuration("TEXTGEN_TIMEOUT", 0)
	if err != nil {
		return envConfig{}, err
	}
	chunkSize, err := envInt("CHUNK_SIZE", 100)
	if err != nil {
		return envConfig{}, err
	}
	if chunkSize <= 0 {
		return envConfig{}, fmt.Errorf("CHUNK_SIZE must be positive (got %d)", chunkSize)
	}
	seed, err := envUint("SYNTH_SEED", 0)
	if err != nil {
		return envConfig{}, err
	}
	useSSL, err := envBool("ARTIFACT_S3_USE_SSL")
	if err != nil {
		return envConfig{}, err
	}

	return envConfig{
		Gemini: textgen.Config{
			APIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:        defaultString("GEMINI_MODEL", defaultGeminiModel),
			BaseURL:      strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
			RateLimitRPS: rps,
			Timeout:      timeout,
		},
		ChunkSize:       chunkSize,
		Seed:            seed,
		TrainerURL:      strings.TrimSpace(os.Getenv("TRAINER_URL")),
		TrainerToken:    strings.TrimSpace(os.Getenv("TRAINER_TOKEN")),
		TrainerCAPath:   strings.TrimSpace(os.Getenv("TRAINER_CA_PATH")),
		ArtifactBackend: strings.ToLower(defaultString("ARTIFACT_BACKEND", "local")),
		ArtifactDir:     defaultString("ARTIFACT_DIR", artifact.DefaultDir),
		SQLiteDSN:       strings.TrimSpace(os.Getenv("ARTIFACT_SQLITE_DSN")),
		S3: artifact.S3Config{
			Endpoint:  strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")),
			Region:    strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")),
			AccessKey: strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")),
			Bucket:    strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")),
			Prefix:    strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")),
			UseSSL:    useSSL,
		},
	}, nil
}

// appConfig builds the collaborators. The returned func releases them and is
// safe to call when err is nil.
func (e envConfig) appConfig(ctx context.Context) (app.Config, func(), error) {
	cfg := app.Config{
		Capability: textgen.FromConfig(ctx, e.Gemini),
		ExportDir:  e.ArtifactDir,
		ChunkSize:  e.ChunkSize,
		Seed:       e.Seed,
	}
	closeFn := func() {}

	if e.TrainerURL != "" {
		b, err := trainer.NewHTTPBackend(e.TrainerURL, e.TrainerToken, e.TrainerCAPath)
		if err != nil {
			return app.Config{}, closeFn, err
		}
		cfg.Trainer = b
	}

	switch e.ArtifactBackend {
	case "local":
		cfg.Store = artifact.NewLocal(e.ArtifactDir)
	case "sqlite":
		s, err := artifact.OpenSQLite(ctx, e.SQLiteDSN)
		if err != nil {
			return app.Config{}, closeFn, err
		}
		cfg.Store = s
		closeFn = func() { _ = s.Close() }
	case "s3":
		s, err := artifact.NewS3(e.S3)
		if err != nil {
			return app.Config{}, closeFn, err
		}
		cfg.Store = s
	default:
		return app.Config{}, closeFn, fmt.Errorf("invalid ARTIFACT_BACKEND=%q (want local, sqlite or s3)", e.ArtifactBackend)
	}
	return cfg, closeFn, nil
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envUint(varName string, fallback uint64) (uint64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return false, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
