package trainer

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseConfig_JSONAndYAML(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "json", in: `{"modelType":"ctgan","params":{"epochs":10,"batchSize":50},"sampleRows":7,"constraints":{"age":{"min":18,"max":80}}}`},
		{name: "yaml", in: "modelType: CTGAN\nparams:\n  epochs: 10\n  batchSize: 50\nsampleRows: 7\nconstraints:\n  age:\n    min: 18\n    max: 80\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tc.in))
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			if cfg.ModelType != CTGAN {
				t.Fatalf("expected CTGAN, got %q", cfg.ModelType)
			}
			if cfg.Params.Epochs != 10 || cfg.Params.BatchSize != 50 {
				t.Fatalf("unexpected params %+v", cfg.Params)
			}
			if cfg.Params.PAC != 5 || cfg.Params.LearningRate != 0.0005 {
				t.Fatalf("expected defaults for absent params, got %+v", cfg.Params)
			}
			if !reflect.DeepEqual(cfg.Params.GeneratorDim, []int{256, 256}) {
				t.Fatalf("expected default generatorDim, got %v", cfg.Params.GeneratorDim)
			}
			if cfg.SampleRows != 7 {
				t.Fatalf("expected sampleRows 7, got %d", cfg.SampleRows)
			}
			b, ok := cfg.Constraints.Lookup("age")
			if !ok || b.Min == nil || *b.Min != 18 || b.Max == nil || *b.Max != 80 {
				t.Fatalf("unexpected constraints %+v", cfg.Constraints)
			}
		})
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"modelType":"TVAE"}`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg.Params, DefaultParams()) {
		t.Fatalf("expected default params, got %+v", cfg.Params)
	}
	if cfg.Constraints == nil {
		t.Fatalf("expected non-nil constraint set")
	}
}

func TestParseConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "missing modelType", in: `{"params":{}}`},
		{name: "unsupported modelType", in: `{"modelType":"GPT"}`},
		{name: "negative epochs", in: `{"modelType":"CTGAN","params":{"epochs":-1}}`},
		{name: "empty generatorDim", in: `{"modelType":"CTGAN","params":{"generatorDim":[]}}`},
		{name: "zero dim entry", in: `{"modelType":"CTGAN","params":{"discriminatorDim":[256,0]}}`},
		{name: "negative sampleRows", in: `{"modelType":"CTGAN","sampleRows":-3}`},
		{name: "malformed", in: `{"modelType":`},
		{name: "infinite max bound", in: "modelType: TVAE\nconstraints:\n  score:\n    max: .inf\n"},
		{name: "nan min bound", in: "modelType: TVAE\nconstraints:\n  score:\n    min: .nan\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.in))
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T %v", err, err)
			}
		})
	}
}

func TestParseConfig_UnsupportedMessage(t *testing.T) {
	_, err := ParseConfig([]byte(`{"modelType":"GPT"}`))
	if err == nil || err.Error() != "Unsupported modelType: GPT" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("modelType: copulagan\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ModelType != CopulaGAN {
		t.Fatalf("expected CopulaGAN, got %q", cfg.ModelType)
	}

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError for missing file, got %v", err)
	}
}

func TestTrainerParams(t *testing.T) {
	full := []string{"batch_size", "discriminator_dim", "discriminator_lr", "epochs", "generator_dim", "generator_lr", "pac"}
	cases := []struct {
		kind ModelType
		keys []string
	}{
		{kind: CTGAN, keys: full},
		{kind: CopulaGAN, keys: full},
		{kind: TVAE, keys: []string{"batch_size", "epochs"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			p, err := Config{ModelType: tc.kind, Params: Params{LearningRate: 0.01}}.TrainerParams()
			if err != nil {
				t.Fatalf("TrainerParams: %v", err)
			}
			if len(p) != len(tc.keys) {
				t.Fatalf("expected keys %v, got %v", tc.keys, p)
			}
			for _, k := range tc.keys {
				if _, ok := p[k]; !ok {
					t.Fatalf("missing key %q in %v", k, p)
				}
			}
			if tc.kind != TVAE && (p["generator_lr"] != 0.01 || p["discriminator_lr"] != 0.01) {
				t.Fatalf("learning rate must feed both optimizers, got %v", p)
			}
		})
	}

	_, err := Config{ModelType: "GPT"}.TrainerParams()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}
