package models

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/nn"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// ResNetConfig describes a bottleneck ResNet.
type ResNetConfig struct {
	InChannels   int
	StemChannels int
	Blocks       [4]int // bottleneck blocks per stage
	Planes       [4]int // inner width per stage
	Expansion    int    // output width = planes * expansion
	NumClasses   int
}

// DefaultResNet50Config returns the ResNet-50 topology for 1000 classes.
func DefaultResNet50Config() ResNetConfig {
	return ResNetConfig{
		InChannels:   3,
		StemChannels: 64,
		Blocks:       [4]int{3, 4, 6, 3},
		Planes:       [4]int{64, 128, 256, 512},
		Expansion:    4,
		NumClasses:   1000,
	}
}

// bottleneck is 1x1 reduce -> 3x3 (strided) -> 1x1 expand, with an optional
// 1x1 projection on the shortcut.
type bottleneck struct {
	conv1, conv2, conv3 *tensor.Tensor[float32]
	bn1, bn2, bn3       cpu.BatchNormParams
	stride              int

	downsample   *tensor.Tensor[float32] // nil for identity shortcut
	downsampleBN cpu.BatchNormParams
}

func (blk *bottleneck) forward(b *cpu.CPUBackend, x *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	out := b.Conv2D(x, blk.conv1, nil, cpu.Same(1, 0))
	out = b.ReLU(b.BatchNorm2D(out, blk.bn1))

	out = b.Conv2D(out, blk.conv2, nil, cpu.Same(blk.stride, 1))
	out = b.ReLU(b.BatchNorm2D(out, blk.bn2))

	out = b.Conv2D(out, blk.conv3, nil, cpu.Same(1, 0))
	out = b.BatchNorm2D(out, blk.bn3)

	identity := x
	if blk.downsample != nil {
		identity = b.Conv2D(x, blk.downsample, nil, cpu.Same(blk.stride, 0))
		identity = b.BatchNorm2D(identity, blk.downsampleBN)
	}
	return b.ReLU(b.Add(out, identity))
}

// ResNet is an image classifier built from bottleneck stages.
//
// Pipeline:
//
//	conv7x7/2 -> BN -> ReLU -> maxpool3x3/2
//	-> stage1..stage4 -> global avgpool -> fc -> softmax
//
// Forward maps [N, C, H, W] to class probabilities [N, classes, 1, 1].
type ResNet struct {
	cfg    ResNetConfig
	stem   *tensor.Tensor[float32]
	stemBN cpu.BatchNormParams
	blocks []bottleneck
	fc     nn.LinearParams
}

// NewResNet builds a ResNet with weights from init.
func NewResNet(cfg ResNetConfig, init *Initializer) *ResNet {
	m := &ResNet{
		cfg:    cfg,
		stem:   init.Conv(cfg.StemChannels, cfg.InChannels, 7),
		stemBN: init.BatchNorm(cfg.StemChannels),
	}

	inplanes := cfg.StemChannels
	for stage, n := range cfg.Blocks {
		planes := cfg.Planes[stage]
		outplanes := planes * cfg.Expansion
		for i := 0; i < n; i++ {
			stride := 1
			if stage > 0 && i == 0 {
				stride = 2
			}
			blk := bottleneck{
				conv1:  init.Conv(planes, inplanes, 1),
				bn1:    init.BatchNorm(planes),
				conv2:  init.Conv(planes, planes, 3),
				bn2:    init.BatchNorm(planes),
				conv3:  init.Conv(outplanes, planes, 1),
				bn3:    init.BatchNorm(outplanes),
				stride: stride,
			}
			if stride != 1 || inplanes != outplanes {
				blk.downsample = init.Conv(outplanes, inplanes, 1)
				blk.downsampleBN = init.BatchNorm(outplanes)
			}
			m.blocks = append(m.blocks, blk)
			inplanes = outplanes
		}
	}

	m.fc = init.Linear(inplanes, cfg.NumClasses)
	return m
}

// Config returns the model configuration.
func (m *ResNet) Config() ResNetConfig { return m.cfg }

// NumBlocks returns the total number of bottleneck blocks.
func (m *ResNet) NumBlocks() int { return len(m.blocks) }

// Forward runs inference on a [N, C, H, W] batch.
func (m *ResNet) Forward(b *cpu.CPUBackend, x *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	if x.Rank() != 4 || x.Dim(1) != m.cfg.InChannels {
		return nil, errors.Wrapf(nn.ErrShape, "resnet: input %v, want [N, %d, H, W]", x.Shape(), m.cfg.InChannels)
	}

	out := b.Conv2D(x, m.stem, nil, cpu.Same(2, 3))
	out = b.ReLU(b.BatchNorm2D(out, m.stemBN))
	out = b.MaxPool2D(out, cpu.Window(3, 2, 1))

	for i := range m.blocks {
		out = m.blocks[i].forward(b, out)
	}

	return classify(b, b.GlobalAvgPool2D(out), m.fc)
}

// classify flattens pooled [N, C, 1, 1] features, applies fc and softmax,
// and returns [N, classes, 1, 1].
func classify(b *cpu.CPUBackend, pooled *tensor.Tensor[float32], fc nn.LinearParams) (*tensor.Tensor[float32], error) {
	n, c := pooled.Dim(0), pooled.Dim(1)
	features, err := pooled.Reshaped(tensor.Shape{n, c})
	if err != nil {
		return nil, err
	}
	logits, err := nn.Linear(b, features, fc)
	if err != nil {
		return nil, errors.Wrap(err, "classifier")
	}
	return b.Softmax(logits).Reshaped(tensor.Shape{n, fc.OutFeatures(), 1, 1})
}
