// Package main provides the cpuinfer CLI: it builds the reference models
// with seeded weights, runs one forward pass each on the CPU engine and
// prints the per-operator time table.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/models"
	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/cpuinfer/cpuinfer/internal/tokenizer"
	"github.com/pkg/errors"
)

const version = "v0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "cpuinfer %s\n", version)
		return 0
	case "run":
		cfg, err := parseRunFlags(args[1:], stderr)
		if err != nil {
			return 2
		}
		logger := newLogger(stderr, cfg.LogLevel)
		if err := runModels(cfg, logger, stdout); err != nil {
			logger.Error("run failed", "err", err)
			return 1
		}
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "cpuinfer %s - CPU inference engine\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  run        Run forward passes (cpuinfer run -h for flags)")
}

// runConfig holds the flags of the run command.
type runConfig struct {
	Model    string
	Freq     int
	Seed     int64
	Half     bool
	Batch    int
	Image    int
	Seq      int
	Text     string
	LogLevel string
}

func defaultRunConfig() runConfig {
	return runConfig{
		Model:    "all",
		Freq:     80000,
		Seed:     1,
		Batch:    1,
		Image:    224,
		Seq:      128,
		LogLevel: "info",
	}
}

func parseRunFlags(args []string, stderr io.Writer) (runConfig, error) {
	cfg := defaultRunConfig()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Model to run: "+strings.Join(modelNames, "|")+"|all")
	fs.IntVar(&cfg.Freq, "freq", cfg.Freq, "CPU cycles per millisecond for the cycle column")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for weights and inputs")
	fs.BoolVar(&cfg.Half, "half", cfg.Half, "Round weights to fp16 precision")
	fs.IntVar(&cfg.Batch, "batch", cfg.Batch, "Batch size")
	fs.IntVar(&cfg.Image, "image", cfg.Image, "Image height and width for the vision models")
	fs.IntVar(&cfg.Seq, "seq", cfg.Seq, "Sequence length for BERT")
	fs.StringVar(&cfg.Text, "text", cfg.Text, "Text to tokenize for BERT (cl100k_base); synthetic ids when empty")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if _, err := selectModels(cfg.Model); err != nil {
		fmt.Fprintln(stderr, err)
		return cfg, err
	}
	if cfg.Batch <= 0 || cfg.Image <= 0 || cfg.Seq <= 0 || cfg.Freq <= 0 {
		err := errors.New("batch, image, seq and freq must be positive")
		fmt.Fprintln(stderr, err)
		return cfg, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// pass is a built model bound to its input, ready to run.
type pass struct {
	input   tensor.Shape
	forward func(b *cpu.CPUBackend) ([]*tensor.Tensor[float32], error)
}

type builder func(cfg runConfig, init *models.Initializer) (pass, error)

var modelNames = []string{"resnet50", "mobilenetv2", "bert", "deit"}

var builders = map[string]builder{
	"resnet50":    buildResNet50,
	"mobilenetv2": buildMobileNetV2,
	"bert":        buildBERT,
	"deit":        buildDeiT,
}

func selectModels(name string) ([]string, error) {
	if name == "all" {
		return modelNames, nil
	}
	if _, ok := builders[name]; !ok {
		return nil, errors.Errorf("unknown model %q (want %s or all)", name, strings.Join(modelNames, ", "))
	}
	return []string{name}, nil
}

func runModels(cfg runConfig, logger *slog.Logger, stdout io.Writer) error {
	names, err := selectModels(cfg.Model)
	if err != nil {
		return err
	}

	prof := profile.New()
	backend := cpu.New(cpu.WithProfiler(prof))

	for _, name := range names {
		logger.Info("building model", "model", name, "seed", cfg.Seed, "half", cfg.Half)
		p, err := builders[name](cfg, models.NewInitializer(cfg.Seed, cfg.Half))
		if err != nil {
			return errors.Wrapf(err, "build %s", name)
		}

		prof.Reset()
		logger.Debug("forward", "model", name, "input", p.input)
		stop := prof.Track(profile.OpOverall)
		outputs, err := p.forward(backend)
		stop()
		if err != nil {
			return errors.Wrapf(err, "forward %s", name)
		}

		fmt.Fprintf(stdout, "\n[%s] input %v ->", name, p.input)
		for _, out := range outputs {
			fmt.Fprintf(stdout, " %v", out.Shape())
		}
		fmt.Fprintln(stdout)
		if err := prof.Report().Print(stdout, cfg.Freq); err != nil {
			return err
		}
		logger.Info("done", "model", name, "overall", prof.Time(profile.OpOverall))
	}
	return nil
}

func randomImages(cfg runConfig) *tensor.Tensor[float32] {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // synthetic input
	x := tensor.MustNew[float32](tensor.Shape{cfg.Batch, 3, cfg.Image, cfg.Image})
	for i := range x.Data() {
		x.Set(i, rng.Float32())
	}
	return x
}

func single(out *tensor.Tensor[float32], err error) ([]*tensor.Tensor[float32], error) {
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor[float32]{out}, nil
}

func buildResNet50(cfg runConfig, init *models.Initializer) (pass, error) {
	m := models.NewResNet(models.DefaultResNet50Config(), init)
	x := randomImages(cfg)
	return pass{
		input: x.Shape(),
		forward: func(b *cpu.CPUBackend) ([]*tensor.Tensor[float32], error) {
			return single(m.Forward(b, x))
		},
	}, nil
}

func buildMobileNetV2(cfg runConfig, init *models.Initializer) (pass, error) {
	m := models.NewMobileNetV2(models.DefaultMobileNetV2Config(), init)
	x := randomImages(cfg)
	return pass{
		input: x.Shape(),
		forward: func(b *cpu.CPUBackend) ([]*tensor.Tensor[float32], error) {
			return single(m.Forward(b, x))
		},
	}, nil
}

func buildBERT(cfg runConfig, init *models.Initializer) (pass, error) {
	bcfg := models.DefaultBERTBaseConfig()
	seq := tokenizer.DefaultSequenceConfig()
	seq.Length = cfg.Seq
	seq.VocabSize = bcfg.VocabSize

	var ids *tensor.Tensor[float32]
	var err error
	if cfg.Text != "" {
		tok, terr := tokenizer.NewTikToken(tokenizer.EncodingCL100kBase)
		if terr != nil {
			return pass{}, terr
		}
		ids, err = tokenizer.Sequence(tok, cfg.Text, seq)
	} else {
		ids, err = tokenizer.Synthetic(cfg.Batch, seq)
	}
	if err != nil {
		return pass{}, err
	}

	m := models.NewBERT(bcfg, init)
	return pass{
		input: ids.Shape(),
		forward: func(b *cpu.CPUBackend) ([]*tensor.Tensor[float32], error) {
			return single(m.Forward(b, ids, nil))
		},
	}, nil
}

func buildDeiT(cfg runConfig, init *models.Initializer) (pass, error) {
	dcfg := models.DefaultDeiTTinyConfig()
	dcfg.ImageSize = cfg.Image
	if cfg.Image%dcfg.PatchSize != 0 {
		return pass{}, errors.Errorf("deit: image size %d is not a multiple of patch %d", cfg.Image, dcfg.PatchSize)
	}
	m := models.NewDeiT(dcfg, init)
	x := randomImages(cfg)
	return pass{
		input: x.Shape(),
		forward: func(b *cpu.CPUBackend) ([]*tensor.Tensor[float32], error) {
			logits, dist, err := m.Forward(b, x)
			if err != nil {
				return nil, err
			}
			return []*tensor.Tensor[float32]{logits, dist}, nil
		},
	}, nil
}
