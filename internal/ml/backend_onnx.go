// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build onnx
// +build onnx

package ml

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// OnnxTagger implements TaggerBackend on ONNX Runtime (via
// yalue/onnxruntime_go). Requires the 'onnx' build tag.
type OnnxTagger struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	labels     []string
	logger     *zap.Logger
	ready      bool
	mu         sync.RWMutex
}

// NewTaggerBackend initializes the ONNX Runtime backend for the model
// at modelPath. Returns nil when the runtime or model cannot be
// loaded; callers degrade to rule-only detection.
func NewTaggerBackend(logger *zap.Logger, modelPath string) TaggerBackend {
	if shlib := os.Getenv("ONNXRUNTIME_SHARED_LIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		logger.Error("ONNX Runtime environment init failed", zap.Error(err))
		return nil
	}

	inputsInfo, outputsInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		logger.Error("Failed to inspect ONNX model IO", zap.Error(err), zap.String("model", modelPath))
		return nil
	}
	if len(outputsInfo) == 0 {
		logger.Error("ONNX model reports no outputs", zap.String("model", modelPath))
		return nil
	}

	// Keep the model's declared input order; BERT-style NER models
	// expose input_ids and attention_mask.
	inputNames := make([]string, 0, len(inputsInfo))
	for _, ii := range inputsInfo {
		inputNames = append(inputNames, ii.Name)
	}
	outputName := outputsInfo[0].Name

	sess, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputName}, nil)
	if err != nil {
		logger.Error("ONNX Runtime session creation failed", zap.Error(err), zap.String("model", modelPath))
		return nil
	}

	logger.Info("ONNX Runtime tagger ready",
		zap.String("model", modelPath),
		zap.Strings("inputs", inputNames),
		zap.String("output", outputName))
	return &OnnxTagger{
		session:    sess,
		inputNames: inputNames,
		outputName: outputName,
		labels:     defaultLabels,
		logger:     logger,
		ready:      true,
	}
}

// IsReady reports whether the backend is initialized.
func (t *OnnxTagger) IsReady() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready && t.session != nil
}

// Close releases session and environment resources.
func (t *OnnxTagger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.Destroy()
		t.session = nil
	}
	ort.DestroyEnvironment()
	t.ready = false
	return nil
}

// TagBatch runs inference and returns one BIO prediction per word,
// softmax scores attached.
func (t *OnnxTagger) TagBatch(ctx context.Context, batch []*TokenizedInput) ([][]TagScore, error) {
	if !t.IsReady() {
		return nil, fmt.Errorf("onnx tagger not ready")
	}
	if len(batch) == 0 {
		return [][]TagScore{}, nil
	}
	seqLen := len(batch[0].InputIDs)

	inputIDs := make([]int64, 0, len(batch)*seqLen)
	attention := make([]int64, 0, len(batch)*seqLen)
	for _, in := range batch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if len(in.InputIDs) != seqLen {
			return nil, fmt.Errorf("ragged batch: got seq %d, want %d", len(in.InputIDs), seqLen)
		}
		for i := 0; i < seqLen; i++ {
			inputIDs = append(inputIDs, int64(in.InputIDs[i]))
			attention = append(attention, int64(in.AttentionMask[i]))
		}
	}

	shape := ort.NewShape(int64(len(batch)), int64(seqLen))
	idsTensor, err := ort.NewTensor[int64](shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor[int64](shape, attention)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inputs := make([]ort.Value, 0, len(t.inputNames))
	for _, rawName := range t.inputNames {
		name := strings.ToLower(rawName)
		if strings.Contains(name, "mask") || strings.Contains(name, "attention") {
			inputs = append(inputs, maskTensor)
		} else {
			inputs = append(inputs, idsTensor)
		}
	}

	outputs := make([]ort.Value, 1)
	if err := t.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("onnx run failed: %w", err)
	}
	if len(outputs) == 0 || outputs[0] == nil {
		return nil, fmt.Errorf("onnx returned no outputs")
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type (want float32 tensor)")
	}
	data := outTensor.GetData()
	outShape := outTensor.GetShape()
	if len(outShape) != 3 {
		return nil, fmt.Errorf("unsupported output shape %v (want [batch, seq, labels])", outShape)
	}
	seq := int(outShape[1])
	numLabels := int(outShape[2])
	if numLabels != len(t.labels) {
		return nil, fmt.Errorf("model emits %d labels, expected %d", numLabels, len(t.labels))
	}
	if len(data) != len(batch)*seq*numLabels {
		return nil, fmt.Errorf("unexpected flat data length %d for shape %v", len(data), outShape)
	}

	results := make([][]TagScore, len(batch))
	for b, in := range batch {
		tags := make([]TagScore, len(in.Words))
		// Word w sits at sequence position w+1; position 0 is [CLS].
		for w := range in.Words {
			pos := w + 1
			if pos >= seq {
				tags[w] = TagScore{Tag: "O", Score: 0}
				continue
			}
			offset := (b*seq + pos) * numLabels
			tags[w] = softmaxBest(data[offset:offset+numLabels], t.labels)
		}
		results[b] = tags
	}
	return results, nil
}

func softmaxBest(logits []float32, labels []string) TagScore {
	best := 0
	max := logits[0]
	for i, v := range logits {
		if v > max {
			max = v
			best = i
		}
	}
	var sum float64
	for _, v := range logits {
		sum += math.Exp(float64(v - max))
	}
	return TagScore{Tag: labels[best], Score: 1.0 / sum}
}
