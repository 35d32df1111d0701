// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides ResNet50, MobileNetV2, BERT and DeiT-Tiny
// assembled from the engine's primitives.
//
// Example:
//
//	backend := cpu.New()
//	net := models.NewResNet(models.DefaultResNet50Config(), models.NewInitializer(1, false))
//	probs, err := net.Forward(backend, images) // [N, 1000, 1, 1]
package models

import "github.com/cpuinfer/cpuinfer/internal/models"

// Model types.
type (
	Initializer             = models.Initializer
	ResNet                  = models.ResNet
	ResNetConfig            = models.ResNetConfig
	MobileNetV2             = models.MobileNetV2
	MobileNetV2Config       = models.MobileNetV2Config
	InvertedResidualSetting = models.InvertedResidualSetting
	BERT                    = models.BERT
	BERTConfig              = models.BERTConfig
	DeiT                    = models.DeiT
	DeiTConfig              = models.DeiTConfig
)

// NewInitializer creates a seeded weight initializer.
func NewInitializer(seed int64, halfWeights bool) *Initializer {
	return models.NewInitializer(seed, halfWeights)
}

// NewResNet builds a ResNet.
func NewResNet(cfg ResNetConfig, init *Initializer) *ResNet { return models.NewResNet(cfg, init) }

// NewMobileNetV2 builds a MobileNetV2.
func NewMobileNetV2(cfg MobileNetV2Config, init *Initializer) *MobileNetV2 {
	return models.NewMobileNetV2(cfg, init)
}

// NewBERT builds a BERT encoder.
func NewBERT(cfg BERTConfig, init *Initializer) *BERT { return models.NewBERT(cfg, init) }

// NewDeiT builds a DeiT.
func NewDeiT(cfg DeiTConfig, init *Initializer) *DeiT { return models.NewDeiT(cfg, init) }

// Default configurations.
var (
	DefaultResNet50Config    = models.DefaultResNet50Config
	DefaultMobileNetV2Config = models.DefaultMobileNetV2Config
	DefaultBERTBaseConfig    = models.DefaultBERTBaseConfig
	DefaultDeiTTinyConfig    = models.DefaultDeiTTinyConfig
)
