// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build !onnx
// +build !onnx

package ml

import (
	"go.uber.org/zap"
)

// Stub used when the 'onnx' build tag is not set. The engine degrades
// to rule-only detection.
func NewTaggerBackend(logger *zap.Logger, modelPath string) TaggerBackend {
	logger.Warn("ML tagger disabled: binary built without the onnx tag",
		zap.String("model", modelPath))
	return nil
}
