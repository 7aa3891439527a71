package main

import (
	"errors"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mendai-e2e/pkg/config"
	"mendai-e2e/pkg/fixtures"
)

// Pre-flight check for a fixture set: verifies every file listed in the
// manifest exists and reports every problem in one pass, plus a format
// sniff summary per case.
func main() {
	var configPath, manifestPath string
	var sniff bool
	flag.StringVar(&configPath, "config", "", "Harness config file (optional)")
	flag.StringVar(&manifestPath, "manifest", "", "Manifest path (overrides config)")
	flag.BoolVar(&sniff, "sniff", true, "Sniff file signatures of present files")
	flag.Parse()

	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Read(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("reading config")
	}
	if manifestPath == "" {
		manifestPath = cfg.ManifestPath
	}

	mgr, err := fixtures.Load(manifestPath)
	if err != nil {
		var parseErr *fixtures.ManifestParseError
		if errors.As(err, &parseErr) {
			logger.Fatal().Err(parseErr.Err).Str("manifest", manifestPath).Msg("manifest is malformed")
		}
		logger.Fatal().Err(err).Msg("loading manifest")
	}

	report := mgr.ValidateFiles()
	for _, e := range report.Errors {
		logger.Error().Str("case_id", e.CaseID).Str("file", e.File).Msg(e.Reason)
	}

	if sniff {
		for _, id := range mgr.CaseIDs() {
			paths, err := mgr.CaseSlices(id)
			if err != nil {
				continue // already reported by ValidateFiles
			}
			counts := map[fixtures.Format]int{}
			for _, p := range paths {
				format, err := fixtures.DetectFormat(p)
				if err != nil {
					continue
				}
				counts[format]++
			}
			evt := logger.Info().Str("case_id", id).Int("files", len(paths))
			for format, n := range counts {
				evt = evt.Int(string(format), n)
			}
			evt.Msg("case formats")
		}
	}

	logger.Info().
		Int("cases", len(mgr.CaseIDs())).
		Int("total_files", mgr.TotalFileCount()).
		Int("missing", len(report.Errors)).
		Bool("valid", report.Valid).
		Msg("fixture validation done")

	if !report.Valid {
		os.Exit(1)
	}
}
