// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/internal/contextual"
	"docscrub/internal/detector"
	"docscrub/internal/logging"
	"docscrub/internal/recognizers"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, detector.LangEN, cfg.Engine.Language)
	assert.Equal(t, detector.CountryCH, cfg.Engine.Country)
	assert.True(t, cfg.Engine.DenyList)
	assert.True(t, cfg.Engine.Context)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logging:
  level: debug
  format: console
engine:
  language: fr
  country: FR
  min_confidence:
    INVOICE: 0.5
ml:
  enabled: false
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, detector.LangFR, cfg.Engine.Language)
	assert.Equal(t, detector.CountryFR, cfg.Engine.Country)
	assert.False(t, cfg.ML.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Untouched fields keep their defaults.
	assert.True(t, cfg.Engine.DenyList)
	assert.InDelta(t, 0.5, cfg.Engine.MinConfidence["INVOICE"], 1e-9)
	assert.InDelta(t, 0.40, cfg.Engine.MinConfidence[detector.DocTypeUnknown], 1e-9)
	assert.Equal(t, Default().ML.MaxSeqLen, cfg.ML.MaxSeqLen)
}

func TestLoadInvalidYAMLFallsBack(t *testing.T) {
	path := writeFile(t, "config.yaml", "logging: [not: a: mapping")

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	path := writeFile(t, "config.yaml", `
engine:
  language: it
`)

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.language")
	assert.Equal(t, Default(), cfg)
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := Default()
	cfg.Engine.ReviewThreshold = 0.9
	cfg.Engine.AutoAnonymizeThreshold = 0.7

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto_anonymize_threshold")
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestImportRecognizersAcceptsValidRejectsInvalid(t *testing.T) {
	path := writeFile(t, "recognizers.yaml", `
version: "1"
recognizers:
  - name: employee_id
    type: EMPLOYEE_ID
    languages: [en, de]
    countries: [CH]
    patterns:
      - '\bEMP-\d{6}\b'
    priority: 40
    specificity: country
    base_confidence: 0.7
    use_global_deny_list: true
  - name: broken_regex
    type: EMPLOYEE_ID
    patterns:
      - '(unclosed'
    base_confidence: 0.5
  - name: contract_iban
    type: IBAN
    patterns:
      - '\b[A-Z]{2}\d{2}[A-Z0-9 ]{10,30}\b'
    validator: iban
    specificity: global
`)

	imported, errs := ImportRecognizers(path)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "broken_regex")
	require.Len(t, imported, 2)

	assert.Equal(t, "employee_id", imported[0].Name)
	assert.Equal(t, recognizers.SpecificityCountry, imported[0].Specificity)
	assert.True(t, imported[0].UseGlobalDenyList)
	assert.Nil(t, imported[0].Validate)

	assert.Equal(t, "contract_iban", imported[1].Name)
	require.NotNil(t, imported[1].Validate)
	assert.True(t, imported[1].Validate("CH93 0076 2011 6238 5295 7").Valid)
}

func TestImportRecognizersRejectsUnknownValidator(t *testing.T) {
	path := writeFile(t, "recognizers.yaml", `
recognizers:
  - name: x
    type: X
    patterns: ['\d+']
    validator: luhn
`)

	imported, errs := ImportRecognizers(path)
	assert.Empty(t, imported)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "unknown validator")
}

func TestImportRecognizersRequiresConfidenceOrValidator(t *testing.T) {
	path := writeFile(t, "recognizers.yaml", `
recognizers:
  - name: x
    type: X
    patterns: ['\d+']
`)

	imported, errs := ImportRecognizers(path)
	assert.Empty(t, imported)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "base_confidence")
}

func TestBuildRegistryMergesImports(t *testing.T) {
	path := writeFile(t, "recognizers.yaml", `
recognizers:
  - name: employee_id
    type: EMPLOYEE_ID
    patterns: ['\bEMP-\d{6}\b']
    base_confidence: 0.7
`)

	registry, errs := BuildRegistry(path)
	assert.Empty(t, errs)
	assert.Equal(t, recognizers.DefaultRegistry().Len()+1, registry.Len())

	result := registry.Analyze("Badge EMP-004711 issued.", detector.LangEN, detector.CountryCH, nil)
	found := false
	for _, e := range result.Entities {
		if e.Type == "EMPLOYEE_ID" {
			found = true
			assert.Equal(t, "EMP-004711", e.Text)
		}
	}
	assert.True(t, found)
}

func TestBuildRegistryWithoutPathIsDefault(t *testing.T) {
	registry, errs := BuildRegistry("")
	assert.Empty(t, errs)
	assert.Equal(t, recognizers.DefaultRegistry().Len(), registry.Len())
}

func TestImportContextWordsRejectsInvalidEntries(t *testing.T) {
	path := writeFile(t, "words.yaml", `
by_type:
  IBAN:
    - word: virement
      weight: 0.8
    - word: ""
      weight: 0.5
    - word: solde
      weight: 1.5
by_language:
  de:
    - word: rechnung
      weight: 0.6
      polarity: negative
`)

	byType, byLang, errs := ImportContextWords(path)
	require.Len(t, errs, 2)

	require.Len(t, byType["IBAN"], 1)
	assert.Equal(t, "virement", byType["IBAN"][0].Word)
	// Polarity defaults to positive when omitted.
	assert.Equal(t, contextual.Positive, byType["IBAN"][0].Polarity)

	require.Len(t, byLang["de"], 1)
	assert.Equal(t, contextual.Negative, byLang["de"][0].Polarity)
}

func TestBuildEnhancerMergesOverDefaults(t *testing.T) {
	path := writeFile(t, "words.yaml", `
by_type:
  IBAN:
    - word: virement
      weight: 0.9
`)

	enhancer, errs := BuildEnhancer(path)
	require.Empty(t, errs)

	// The imported cue boosts alongside the embedded "iban" default.
	text := "Virement sur IBAN CH93 0076 2011 6238 5295 7"
	entity := detector.Entity{
		Text:       "CH93 0076 2011 6238 5295 7",
		Type:       detector.TypeIBAN,
		Start:      18,
		End:        44,
		Confidence: 0.5,
	}
	result := enhancer.Enhance(text, entity, detector.LangFR, nil)
	assert.True(t, result.Boosted)
	assert.Contains(t, result.Matched, "virement")
}

func TestWatchDeliversValidReload(t *testing.T) {
	path := writeFile(t, "config.yaml", "engine:\n  language: en\n")

	updates := make(chan *Config, 4)
	w, err := Watch(path, logging.Nop(), func(cfg *Config) { updates <- cfg })
	require.NoError(t, err)
	defer w.Close()

	// Give the watcher goroutine a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  language: de\n"), 0o600))

	select {
	case cfg := <-updates:
		assert.Equal(t, detector.LangDE, cfg.Engine.Language)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload delivered")
	}
}

func TestWatchSkipsInvalidReload(t *testing.T) {
	path := writeFile(t, "config.yaml", "engine:\n  language: en\n")

	updates := make(chan *Config, 4)
	w, err := Watch(path, logging.Nop(), func(cfg *Config) { updates <- cfg })
	require.NoError(t, err)
	defer w.Close()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  language: klingon\n"), 0o600))

	select {
	case cfg := <-updates:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}
