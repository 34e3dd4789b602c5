package trainer

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shpitdev/synthgen/internal/constraints"
)

// ModelType names a generative model family supported by the trainer.
type ModelType string

const (
	CTGAN     ModelType = "CTGAN"
	TVAE      ModelType = "TVAE"
	CopulaGAN ModelType = "CopulaGAN"
)

// ParseModelType matches name case-insensitively against the supported kinds.
func ParseModelType(name string) (ModelType, error) {
	name = strings.TrimSpace(name)
	for _, k := range []ModelType{CTGAN, TVAE, CopulaGAN} {
		if strings.EqualFold(name, string(k)) {
			return k, nil
		}
	}
	return "", &ConfigError{Msg: fmt.Sprintf("Unsupported modelType: %s", name)}
}

// Params are the training hyperparameters. Zero values are replaced by defaults.
type Params struct {
	Epochs           int     `yaml:"epochs" json:"epochs"`
	BatchSize        int     `yaml:"batchSize" json:"batchSize"`
	GeneratorDim     []int   `yaml:"generatorDim" json:"generatorDim"`
	DiscriminatorDim []int   `yaml:"discriminatorDim" json:"discriminatorDim"`
	LearningRate     float64 `yaml:"learningRate" json:"learningRate"`
	PAC              int     `yaml:"pac" json:"pac"`
}

// DefaultParams returns the defaults used for absent parameters.
func DefaultParams() Params {
	return Params{
		Epochs:           500,
		BatchSize:        256,
		GeneratorDim:     []int{256, 256},
		DiscriminatorDim: []int{256, 256},
		LearningRate:     0.0005,
		PAC:              5,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Epochs == 0 {
		p.Epochs = d.Epochs
	}
	if p.BatchSize == 0 {
		p.BatchSize = d.BatchSize
	}
	if p.GeneratorDim == nil {
		p.GeneratorDim = d.GeneratorDim
	}
	if p.DiscriminatorDim == nil {
		p.DiscriminatorDim = d.DiscriminatorDim
	}
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.PAC == 0 {
		p.PAC = d.PAC
	}
	return p
}

func (p Params) validate() error {
	if p.Epochs < 0 {
		return &ConfigError{Msg: fmt.Sprintf("params.epochs must be positive (got %d)", p.Epochs)}
	}
	if p.BatchSize < 0 {
		return &ConfigError{Msg: fmt.Sprintf("params.batchSize must be positive (got %d)", p.BatchSize)}
	}
	if p.LearningRate < 0 {
		return &ConfigError{Msg: fmt.Sprintf("params.learningRate must be positive (got %g)", p.LearningRate)}
	}
	if p.PAC < 0 {
		return &ConfigError{Msg: fmt.Sprintf("params.pac must be positive (got %d)", p.PAC)}
	}
	for name, dims := range map[string][]int{"generatorDim": p.GeneratorDim, "discriminatorDim": p.DiscriminatorDim} {
		if len(dims) == 0 {
			return &ConfigError{Msg: fmt.Sprintf("params.%s must not be empty", name)}
		}
		for _, d := range dims {
			if d <= 0 {
				return &ConfigError{Msg: fmt.Sprintf("params.%s entries must be positive (got %d)", name, d)}
			}
		}
	}
	return nil
}

// Config is the model configuration artifact.
type Config struct {
	ModelType ModelType `yaml:"modelType" json:"modelType"`
	Params    Params    `yaml:"params" json:"params"`

	// SampleRows is the number of synthetic rows to draw. 0 means the seed row count.
	SampleRows int `yaml:"sampleRows" json:"sampleRows"`

	Constraints constraints.Set `yaml:"constraints" json:"constraints"`
}

// ParseConfig decodes a JSON or YAML config artifact, fills defaults and
// validates it. All failures are *ConfigError.
func ParseConfig(b []byte) (Config, error) {
	var raw struct {
		ModelType   string          `yaml:"modelType"`
		Params      Params          `yaml:"params"`
		SampleRows  int             `yaml:"sampleRows"`
		Constraints constraints.Set `yaml:"constraints"`
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Config{}, &ConfigError{Msg: "parse model config", Err: err}
	}
	if strings.TrimSpace(raw.ModelType) == "" {
		return Config{}, &ConfigError{Msg: "modelType is required"}
	}
	kind, err := ParseModelType(raw.ModelType)
	if err != nil {
		return Config{}, err
	}
	if raw.SampleRows < 0 {
		return Config{}, &ConfigError{Msg: fmt.Sprintf("sampleRows must not be negative (got %d)", raw.SampleRows)}
	}
	params := raw.Params.withDefaults()
	if err := params.validate(); err != nil {
		return Config{}, err
	}
	set := raw.Constraints
	if set == nil {
		set = constraints.Set{}
	}
	for name, b := range set {
		for side, v := range map[string]*float64{"min": b.Min, "max": b.Max} {
			if v != nil && (math.IsInf(*v, 0) || math.IsNaN(*v)) {
				return Config{}, &ConfigError{Msg: fmt.Sprintf("constraints.%s.%s must be finite (got %g)", name, side, *v)}
			}
		}
	}
	return Config{
		ModelType:   kind,
		Params:      params,
		SampleRows:  raw.SampleRows,
		Constraints: set,
	}, nil
}

// LoadConfig reads and parses a config artifact from path.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Msg: "read model config", Err: err}
	}
	return ParseConfig(b)
}

// TrainerParams maps Params onto the hyperparameter names accepted by the
// model kind. CTGAN and CopulaGAN take the full set; TVAE only takes epochs
// and batch size.
func (c Config) TrainerParams() (map[string]any, error) {
	p := c.Params.withDefaults()
	switch c.ModelType {
	case CTGAN, CopulaGAN:
		return map[string]any{
			"epochs":            p.Epochs,
			"batch_size":        p.BatchSize,
			"generator_dim":     p.GeneratorDim,
			"discriminator_dim": p.DiscriminatorDim,
			"generator_lr":      p.LearningRate,
			"discriminator_lr":  p.LearningRate,
			"pac":               p.PAC,
		}, nil
	case TVAE:
		return map[string]any{
			"epochs":     p.Epochs,
			"batch_size": p.BatchSize,
		}, nil
	default:
		return nil, &ConfigError{Msg: fmt.Sprintf("Unsupported modelType: %s", c.ModelType)}
	}
}

// ConfigError is a reported configuration problem (unsupported model kind,
// invalid parameter, unreadable artifact).
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "trainer config error"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
