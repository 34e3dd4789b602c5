package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/shpitdev/synthgen/internal/app"
	"github.com/shpitdev/synthgen/internal/redact"
	"github.com/shpitdev/synthgen/internal/trainer"
)

const defaultRows = 100

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var run func(context.Context, []string) int
	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "generate":
		run = runGenerate
	case "engineer-prompt":
		run = runEngineerPrompt
	case "generate-constraints":
		run = runGenerateConstraints
	case "process-file":
		run = runProcessFile
	case "transform":
		run = runTransform
	case "generate-transformation":
		run = runGenerateTransformation
	case "train-model":
		run = runTrainModel
	case "download":
		run = runDownload
	case "run":
		run = runPipeline
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
	os.Exit(run(ctx, os.Args[2:]))
}

// withApp loads env configuration, builds the App and prints the operation's
// payload to stdout.
func withApp(ctx context.Context, op func(*app.App) (any, error)) int {
	env, err := loadEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	cfg, closeFn, err := env.appConfig(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	defer closeFn()

	out, err := op(app.New(cfg))
	return emit(os.Stdout, out, err)
}

// emit writes the payload document and maps err to an exit code: 2 for
// configuration problems, 1 for other failures.
func emit(w io.Writer, out any, err error) int {
	b, encErr := json.MarshalIndent(app.Payload(out, err), "", "  ")
	if encErr != nil {
		// Still print a well-formed document when the payload cannot encode.
		err = fmt.Errorf("encode output: %w", encErr)
		b, _ = json.MarshalIndent(app.Payload(nil, err), "", "  ")
	}
	if _, wErr := fmt.Fprintf(w, "%s\n", b); wErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write output: %v\n", wErr)
		return 1
	}
	if err == nil {
		return 0
	}
	var appCfg *app.ConfigError
	var trainerCfg *trainer.ConfigError
	if errors.As(err, &appCfg) || errors.As(err, &trainerCfg) {
		return 2
	}
	return 1
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runGenerate(ctx context.Context, args []string) int {
	fs := newFlagSet("generate")
	promptPath := fs.String("prompt", "", "Path to the dataset description text file")
	rows := fs.Int("rows", defaultRows, "Number of rows to synthesize")
	useEngineering := fs.Bool("use-engineering", false, "Rewrite the prompt with the text generation service first")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *promptPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "generate requires --prompt")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.Generate(ctx, *promptPath, *rows, *useEngineering)
	})
}

func runEngineerPrompt(ctx context.Context, args []string) int {
	fs := newFlagSet("engineer-prompt")
	promptPath := fs.String("prompt", "", "Path to the dataset description text file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *promptPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "engineer-prompt requires --prompt")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.EngineerPrompt(ctx, *promptPath)
	})
}

func runGenerateConstraints(ctx context.Context, args []string) int {
	fs := newFlagSet("generate-constraints")
	promptPath := fs.String("prompt", "", "Path to the dataset description text file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *promptPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "generate-constraints requires --prompt")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.GenerateConstraints(ctx, *promptPath)
	})
}

func runProcessFile(ctx context.Context, args []string) int {
	fs := newFlagSet("process-file")
	path := fs.String("file", "", "Path to an uploaded CSV or XLSX file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *path == "" {
		_, _ = fmt.Fprintln(os.Stderr, "process-file requires --file")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.ProcessFile(ctx, *path)
	})
}

func runTransform(ctx context.Context, args []string) int {
	fs := newFlagSet("transform")
	datasetPath := fs.String("dataset", "", "Path to a Dataset JSON file")
	planPath := fs.String("plan", "", "Path to a transformation plan (JSON or YAML); empty keeps the dataset unchanged")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *datasetPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "transform requires --dataset")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.Transform(ctx, *datasetPath, *planPath)
	})
}

func runGenerateTransformation(ctx context.Context, args []string) int {
	fs := newFlagSet("generate-transformation")
	samplePath := fs.String("sample", "", "Path to a sample Dataset JSON file")
	instructionsPath := fs.String("instructions", "", "Path to a text file with transformation instructions")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *samplePath == "" || *instructionsPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "generate-transformation requires --sample and --instructions")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.GenerateTransformation(ctx, *samplePath, *instructionsPath)
	})
}

func runTrainModel(ctx context.Context, args []string) int {
	fs := newFlagSet("train-model")
	datasetPath := fs.String("dataset", "", "Path to the seed Dataset JSON file")
	configPath := fs.String("config", "", "Path to the model config (JSON or YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *datasetPath == "" || *configPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "train-model requires --dataset and --config")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.TrainModel(ctx, *datasetPath, *configPath)
	})
}

func runDownload(ctx context.Context, args []string) int {
	fs := newFlagSet("download")
	format := fs.String("format", "csv", "Artifact format: csv or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.Download(ctx, *format)
	})
}

func runPipeline(ctx context.Context, args []string) int {
	fs := newFlagSet("run")
	promptPath := fs.String("prompt", "", "Path to the dataset description text file")
	rows := fs.Int("rows", defaultRows, "Number of seed rows to synthesize")
	configPath := fs.String("config", "", "Path to the model config (JSON or YAML)")
	useEngineering := fs.Bool("use-engineering", false, "Rewrite the prompt with the text generation service first")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *promptPath == "" || *configPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "run requires --prompt and --config")
		return 2
	}
	return withApp(ctx, func(a *app.App) (any, error) {
		return a.Run(ctx, *promptPath, *rows, *configPath, *useEngineering)
	})
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `synthgen: synthetic tabular data from a text description

Usage:
  synthgen <command> [flags]

Commands:
  generate                 Synthesize a seed dataset from --prompt (--rows, --use-engineering)
  engineer-prompt          Rewrite --prompt into a field list
  generate-constraints     Derive per-field numeric bounds from --prompt
  process-file             Load an uploaded CSV/XLSX --file as a typed dataset
  transform                Apply a --plan to a --dataset
  generate-transformation  Suggest a plan for --instructions against a --sample dataset
  train-model              Train a generative model on --dataset with --config and validate it
  download                 Resolve the path of the last synthetic output (--format csv|json)
  run                      generate + constraints + train-model + validation in one pass

Every command prints one JSON document to stdout; logs go to stderr.

Examples:
  synthgen generate --prompt prompt.txt --rows 500 > seed.json
  synthgen train-model --dataset seed.json --config model.yaml

Environment (text generation):
  GEMINI_API_KEY          Gemini API key; unset runs offline
  GEMINI_MODEL            Model name (default %s)
  GEMINI_BASE_URL         Optional base URL override (proxies/testing)
  TEXTGEN_RATE_LIMIT_RPS  Request rate limit (RPS), 0 disables
  TEXTGEN_TIMEOUT         Per-request timeout (e.g. 60s), 0 disables
  CHUNK_SIZE              Rows per generation request (default 100)
  SYNTH_SEED              Fixes offline sampling when set

Environment (trainer):
  TRAINER_URL             Trainer base URL (required for train-model and run)
  TRAINER_TOKEN           Optional bearer token
  TRAINER_CA_PATH         Optional PEM trust store for TLS

Environment (artifacts):
  ARTIFACT_BACKEND        local (default), sqlite or s3
  ARTIFACT_DIR            Local directory, also the download export dir (default uploads)
  ARTIFACT_SQLITE_DSN     SQLite database path for the sqlite backend
  ARTIFACT_S3_ENDPOINT    S3 endpoint host[:port]
  ARTIFACT_S3_REGION      S3 region (default us-east-1)
  ARTIFACT_S3_ACCESS_KEY  S3 access key
  ARTIFACT_S3_SECRET_KEY  S3 secret key
  ARTIFACT_S3_BUCKET      S3 bucket
  ARTIFACT_S3_PREFIX      Optional object key prefix
  ARTIFACT_S3_USE_SSL     If set to true/1, use TLS

`, defaultGeminiModel)
}
