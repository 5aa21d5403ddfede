// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// docscrub detects and anonymizes personal data in text documents. It
// runs as a one-shot CLI over files or stdin, or as an HTTP service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"docscrub/internal/address"
	"docscrub/internal/config"
	"docscrub/internal/denylist"
	"docscrub/internal/logging"
	"docscrub/internal/ml"
	"docscrub/internal/parallel"
	"docscrub/internal/pipeline"
	"docscrub/internal/session"
	"docscrub/internal/version"
	"docscrub/internal/web"
)

type cliFlags struct {
	configFile  string
	serve       bool
	anonymize   bool
	output      string
	mappingPath string
	format      string
	language    string
	country     string
	docType     string
	workers     int
	noColor     bool
	verbose     bool
	showVersion bool
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	if flags.showVersion {
		info := version.Get()
		fmt.Printf("docscrub %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
		return 0
	}

	if flags.noColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
	}
	applyFlagOverrides(cfg, flags)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	engine := buildEngine(cfg, logger)

	if flags.serve {
		return serve(cfg, flags.configFile, engine, logger)
	}
	return runDocuments(cfg, flags, engine, logger)
}

func parseFlags() *cliFlags {
	flags := &cliFlags{}
	flag.StringVar(&flags.configFile, "config", "", "Path to configuration file")
	flag.BoolVar(&flags.serve, "serve", false, "Run the HTTP API instead of processing files")
	flag.BoolVar(&flags.anonymize, "anonymize", false, "Replace detected entities with placeholders")
	flag.StringVar(&flags.output, "output", "", "Output file for anonymized text (default stdout)")
	flag.StringVar(&flags.mappingPath, "mapping", "", "Output file for the mapping record")
	flag.StringVar(&flags.format, "format", "json", "Mapping record format: json or yaml")
	flag.StringVar(&flags.language, "lang", "", "Document language: en, fr or de")
	flag.StringVar(&flags.country, "country", "", "Jurisdiction: CH, DE, FR or EU")
	flag.StringVar(&flags.docType, "doc-type", "", "Document type hint, e.g. INVOICE or LETTER")
	flag.IntVar(&flags.workers, "workers", 4, "Worker count for multi-file runs")
	flag.BoolVar(&flags.noColor, "no-color", false, "Disable colorized output")
	flag.BoolVar(&flags.verbose, "verbose", false, "Print per-pass details")
	flag.BoolVar(&flags.showVersion, "version", false, "Print version and exit")
	flag.Parse()
	return flags
}

func applyFlagOverrides(cfg *config.Config, flags *cliFlags) {
	if flags.language != "" {
		cfg.Engine.Language = flags.language
	}
	if flags.country != "" {
		cfg.Engine.Country = flags.country
	}
}

// buildEngine assembles registry, deny list, classifier and thresholds
// from the configuration. Definition file problems are warnings: the
// engine still comes up on what loaded.
func buildEngine(cfg *config.Config, logger *logging.Logger) *pipeline.Engine {
	registry, errs := config.BuildRegistry(cfg.Paths.Recognizers)
	for _, err := range errs {
		logger.Warn("recognizer definition skipped", zap.Error(err))
	}

	deny := denylist.Default()
	if cfg.Paths.DenyList != "" {
		var denyErrs []error
		deny, denyErrs = denylist.Load(cfg.Paths.DenyList)
		for _, err := range denyErrs {
			logger.Warn("deny list entry skipped", zap.Error(err))
		}
	}

	enhancer, enhancerErrs := config.BuildEnhancer(cfg.Paths.ContextWords)
	for _, err := range enhancerErrs {
		logger.Warn("context word skipped", zap.Error(err))
	}

	return pipeline.New(pipeline.Config{
		Registry:   registry,
		DenyList:   deny,
		Enhancer:   enhancer,
		Classifier: buildClassifier(cfg.ML, logger),
		Scorer: &address.Scorer{
			ReviewThreshold: cfg.Engine.ReviewThreshold,
			AutoThreshold:   cfg.Engine.AutoAnonymizeThreshold,
		},
		Logger:        logger,
		MinConfidence: cfg.Engine.MinConfidence,
	})
}

// buildClassifier wires the ONNX tagger when configured. Any failure
// falls back to rule-only detection.
func buildClassifier(cfg config.MLConfig, logger *logging.Logger) ml.TokenClassifier {
	if !cfg.Enabled || cfg.ModelPath == "" || cfg.VocabPath == "" {
		return nil
	}

	vocab, err := ml.LoadVocab(cfg.VocabPath)
	if err != nil {
		logger.Warn("vocabulary unavailable, running rule-only", zap.Error(err))
		return nil
	}
	backend := ml.NewTaggerBackend(logger.Logger, cfg.ModelPath)
	if backend == nil {
		return nil
	}

	clientCfg := ml.DefaultClientConfig()
	clientCfg.MaxSeqLen = cfg.MaxSeqLen
	clientCfg.RatePerSec = cfg.RatePerSec
	return ml.NewClient(backend, vocab, clientCfg, logger.Logger)
}

// serve runs the HTTP API, swapping the engine whenever the config file
// changes and still validates.
func serve(cfg *config.Config, configPath string, engine *pipeline.Engine, logger *logging.Logger) int {
	server := web.New(cfg.Server, engine, logger)

	if configPath != "" {
		watcher, err := config.Watch(configPath, logger, func(next *config.Config) {
			server.SwapEngine(buildEngine(next, logger))
		})
		if err != nil {
			logger.Warn("config watch unavailable", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		return 1
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return 1
	}
	return 0
}

// runDocuments processes the positional file arguments, or stdin when
// none are given.
func runDocuments(cfg *config.Config, flags *cliFlags, engine *pipeline.Engine, logger *logging.Logger) int {
	opts := pipeline.DefaultOptions()
	opts.Language = cfg.Engine.Language
	opts.Country = cfg.Engine.Country
	opts.EnableDenyList = cfg.Engine.DenyList
	opts.EnableContext = cfg.Engine.Context
	if flags.docType != "" {
		opts.DocumentType = flags.docType
	}

	paths := flag.Args()
	if len(paths) > 1 {
		return runBatch(paths, opts, flags, engine, logger)
	}

	text, err := readInput(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	if flags.anonymize {
		outcome, err := engine.Anonymize(ctx, text, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return writeOutcome(outcome, flags)
	}

	result, err := engine.Detect(ctx, text, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	printReport(os.Stdout, result, flags.verbose)
	return 0
}

// runBatch runs multiple files through the worker pool. Outputs land
// next to each input file.
func runBatch(paths []string, opts pipeline.Options, flags *cliFlags, engine *pipeline.Engine, logger *logging.Logger) int {
	jobs := make([]*parallel.Job, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		jobs = append(jobs, &parallel.Job{
			ID:        path,
			Text:      string(data),
			Options:   opts,
			Anonymize: flags.anonymize,
		})
	}

	pool := parallel.NewPool(engine, flags.workers, logger)
	results := pool.Process(jobs)

	exit := 0
	for _, path := range paths {
		result := results[path]
		if result == nil || result.Error != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "%s: failed\n", path)
			if result != nil {
				fmt.Fprintf(os.Stderr, "  %v\n", result.Error)
			}
			exit = 1
			continue
		}

		if flags.anonymize {
			if err := writeBatchOutcome(path, result.Outcome, flags.format); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exit = 1
				continue
			}
			fmt.Printf("%s: anonymized (%d entities, %d addresses)\n",
				path, len(result.Outcome.Record.Entities), len(result.Outcome.Record.Addresses))
			continue
		}

		fmt.Printf("== %s ==\n", path)
		printReport(os.Stdout, result.Detection, flags.verbose)
	}
	return exit
}

func readInput(paths []string) (string, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOutcome writes anonymized text and, when requested, the mapping
// record. The mapping goes nowhere by default: it maps placeholders back
// to personal data, so it is only written when explicitly asked for.
func writeOutcome(outcome *session.Outcome, flags *cliFlags) int {
	out := os.Stdout
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}
	fmt.Fprint(out, outcome.Text)

	if flags.mappingPath != "" {
		if err := writeMapping(flags.mappingPath, &outcome.Record, flags.format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

func writeBatchOutcome(inputPath string, outcome *session.Outcome, format string) error {
	if err := os.WriteFile(inputPath+".anon.txt", []byte(outcome.Text), 0o600); err != nil {
		return err
	}
	return writeMapping(inputPath+".mapping."+format, &outcome.Record, format)
}

func writeMapping(path string, record *session.MappingRecord, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "yaml":
		data, err = yaml.Marshal(record)
	default:
		data, err = json.MarshalIndent(record, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	// The mapping reverses anonymization; keep it owner-readable.
	return os.WriteFile(path, data, 0o600)
}

// printReport renders a colorized detection summary. Confidence bands:
// green can be anonymized unattended, yellow needs review, red is weak.
func printReport(w io.Writer, result *pipeline.Result, verbose bool) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	if result.Degraded {
		yellow.Fprintln(w, "Note: ML inference unavailable, rule-only results")
	}

	for _, e := range result.Entities {
		band := red
		switch {
		case e.Confidence >= 0.85:
			band = green
		case e.Confidence >= 0.60:
			band = yellow
		}
		band.Fprintf(w, "%-14s", e.Type)
		fmt.Fprintf(w, " %5.2f  [%d:%d]  %s  (%s)\n", e.Confidence, e.Start, e.End, e.Text, e.Source)
	}

	for _, g := range result.Addresses {
		cyan.Fprintf(w, "%-14s", "ADDRESS")
		fmt.Fprintf(w, " %5.2f  [%d:%d]  %s", g.Confidence, g.Start, g.End, g.Text)
		if g.FlaggedForReview {
			yellow.Fprint(w, "  needs review")
		}
		fmt.Fprintln(w)
	}

	if len(result.Entities) == 0 && len(result.Addresses) == 0 {
		fmt.Fprintln(w, "No personal data found.")
	}

	if verbose {
		fmt.Fprintln(w)
		for _, timing := range result.Timings {
			status := "ok"
			if !timing.Success {
				status = "failed"
			}
			fmt.Fprintf(w, "pass %-12s %-6s %4d -> %-4d %s\n",
				timing.Pass, status, timing.EntityIn, timing.EntityOut, timing.Duration.Round(time.Microsecond))
		}
	}

	counts := map[string]int{}
	for _, e := range result.Entities {
		counts[e.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintf(w, "\n%d entities", len(result.Entities))
	for _, t := range types {
		fmt.Fprintf(w, ", %d %s", counts[t], t)
	}
	fmt.Fprintln(w)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
