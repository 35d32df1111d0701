package models

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/nn"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// InvertedResidualSetting is one (t, c, n, s) row of the MobileNetV2 table:
// expansion factor, output channels, repeats and the stride of the first
// repeat.
type InvertedResidualSetting struct {
	Expand   int
	Channels int
	Repeats  int
	Stride   int
}

// MobileNetV2Config describes a MobileNetV2.
type MobileNetV2Config struct {
	InChannels   int
	StemChannels int
	LastChannels int
	Settings     []InvertedResidualSetting
	NumClasses   int
}

// DefaultMobileNetV2Config returns the width-1.0 MobileNetV2 for 1000 classes.
func DefaultMobileNetV2Config() MobileNetV2Config {
	return MobileNetV2Config{
		InChannels:   3,
		StemChannels: 32,
		LastChannels: 1280,
		Settings: []InvertedResidualSetting{
			{Expand: 1, Channels: 16, Repeats: 1, Stride: 1},
			{Expand: 6, Channels: 24, Repeats: 2, Stride: 2},
			{Expand: 6, Channels: 32, Repeats: 3, Stride: 2},
			{Expand: 6, Channels: 64, Repeats: 4, Stride: 2},
			{Expand: 6, Channels: 96, Repeats: 3, Stride: 1},
			{Expand: 6, Channels: 160, Repeats: 3, Stride: 2},
			{Expand: 6, Channels: 320, Repeats: 1, Stride: 1},
		},
		NumClasses: 1000,
	}
}

// invertedResidual expands with a 1x1 conv (skipped when t == 1), filters
// with a 3x3 depthwise conv and projects back with a linear 1x1 conv.
type invertedResidual struct {
	expand   *tensor.Tensor[float32] // nil when t == 1
	expandBN cpu.BatchNormParams
	dw       *tensor.Tensor[float32]
	dwBN     cpu.BatchNormParams
	project  *tensor.Tensor[float32]
	projBN   cpu.BatchNormParams
	stride   int
	residual bool
}

func (blk *invertedResidual) forward(b *cpu.CPUBackend, x *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	out := x
	if blk.expand != nil {
		out = b.Conv2D(out, blk.expand, nil, cpu.Same(1, 0))
		out = b.ReLU6(b.BatchNorm2D(out, blk.expandBN))
	}

	out = b.DepthwiseConv2D(out, blk.dw, nil, cpu.Same(blk.stride, 1))
	out = b.ReLU6(b.BatchNorm2D(out, blk.dwBN))

	out = b.Conv2D(out, blk.project, nil, cpu.Same(1, 0))
	out = b.BatchNorm2D(out, blk.projBN)

	if blk.residual {
		out = b.Add(out, x)
	}
	return out
}

// MobileNetV2 is an image classifier built from inverted residual blocks.
//
// Pipeline:
//
//	conv3x3/2 -> BN -> ReLU6 -> inverted residuals
//	-> conv1x1 -> BN -> ReLU6 -> avgpool -> fc -> softmax
//
// Forward maps [N, C, H, W] to class probabilities [N, classes, 1, 1].
type MobileNetV2 struct {
	cfg    MobileNetV2Config
	stem   *tensor.Tensor[float32]
	stemBN cpu.BatchNormParams
	blocks []invertedResidual
	last   *tensor.Tensor[float32]
	lastBN cpu.BatchNormParams
	fc     nn.LinearParams
}

// NewMobileNetV2 builds a MobileNetV2 with weights from init.
func NewMobileNetV2(cfg MobileNetV2Config, init *Initializer) *MobileNetV2 {
	m := &MobileNetV2{
		cfg:    cfg,
		stem:   init.Conv(cfg.StemChannels, cfg.InChannels, 3),
		stemBN: init.BatchNorm(cfg.StemChannels),
	}

	in := cfg.StemChannels
	for _, s := range cfg.Settings {
		for i := 0; i < s.Repeats; i++ {
			stride := 1
			if i == 0 {
				stride = s.Stride
			}
			hidden := in * s.Expand
			blk := invertedResidual{
				dw:       init.Depthwise(hidden, 3),
				dwBN:     init.BatchNorm(hidden),
				project:  init.Conv(s.Channels, hidden, 1),
				projBN:   init.BatchNorm(s.Channels),
				stride:   stride,
				residual: stride == 1 && in == s.Channels,
			}
			if s.Expand != 1 {
				blk.expand = init.Conv(hidden, in, 1)
				blk.expandBN = init.BatchNorm(hidden)
			}
			m.blocks = append(m.blocks, blk)
			in = s.Channels
		}
	}

	m.last = init.Conv(cfg.LastChannels, in, 1)
	m.lastBN = init.BatchNorm(cfg.LastChannels)
	m.fc = init.Linear(cfg.LastChannels, cfg.NumClasses)
	return m
}

// Config returns the model configuration.
func (m *MobileNetV2) Config() MobileNetV2Config { return m.cfg }

// NumBlocks returns the number of inverted residual blocks.
func (m *MobileNetV2) NumBlocks() int { return len(m.blocks) }

// Forward runs inference on a [N, C, H, W] batch.
func (m *MobileNetV2) Forward(b *cpu.CPUBackend, x *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	if x.Rank() != 4 || x.Dim(1) != m.cfg.InChannels {
		return nil, errors.Wrapf(nn.ErrShape, "mobilenetv2: input %v, want [N, %d, H, W]", x.Shape(), m.cfg.InChannels)
	}

	out := b.Conv2D(x, m.stem, nil, cpu.Same(2, 1))
	out = b.ReLU6(b.BatchNorm2D(out, m.stemBN))

	for i := range m.blocks {
		out = m.blocks[i].forward(b, out)
	}

	out = b.Conv2D(out, m.last, nil, cpu.Same(1, 0))
	out = b.ReLU6(b.BatchNorm2D(out, m.lastBN))

	return classify(b, b.GlobalAvgPool2D(out), m.fc)
}
