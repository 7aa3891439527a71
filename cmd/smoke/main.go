package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mendai-e2e/pkg/config"
	"mendai-e2e/pkg/fixtures"
	"mendai-e2e/pkg/imaging"
)

// End-to-end smoke run against a live imaging service: pick a case, upload
// its slices, analyze the middle slice synchronously, run an async batch
// analysis to completion, download the report, delete the scan.
func main() {
	var configPath, caseID, patientID string
	var keep bool
	flag.StringVar(&configPath, "config", "", "Harness config file (optional)")
	flag.StringVar(&caseID, "case", "", "Case id to run (default: first case in manifest)")
	flag.StringVar(&patientID, "patient", "smoke-patient-001", "Patient id to upload under")
	flag.BoolVar(&keep, "keep", false, "Keep the uploaded scan instead of deleting it")
	flag.Parse()

	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Read(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("reading config")
	}

	mgr, err := fixtures.Load(cfg.ManifestPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading manifest")
	}
	if caseID == "" {
		ids := mgr.CaseIDs()
		if len(ids) == 0 {
			logger.Fatal().Msg("manifest has no cases")
		}
		caseID = ids[0]
	}

	paths, err := mgr.CaseSlices(caseID)
	if err != nil {
		logger.Fatal().Err(err).Str("case_id", caseID).Msg("resolving case slices")
	}

	client := imaging.NewClient(imaging.ClientConfig{
		BaseURL:        cfg.ImagingAPIURL,
		UploadTimeout:  cfg.UploadTimeout(),
		AnalyzeTimeout: cfg.AnalyzeTimeout(),
		BatchTimeout:   cfg.BatchTimeout(),
	}, logger)

	ctx := context.Background()
	retryOpts := imaging.RetryOptions{MaxRetries: cfg.MaxRetries, RetryDelay: cfg.RetryDelay()}

	// The service may still be starting up; health is the one call worth
	// retrying before giving up on the whole run.
	if _, err := imaging.WithRetry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.Health(ctx)
	}, retryOpts); err != nil {
		logger.Fatal().Err(err).Str("url", cfg.ImagingAPIURL).Msg("imaging service not healthy")
	}

	upload, err := client.UploadMedicalImages(ctx, paths, patientID)
	if err != nil {
		logger.Fatal().Err(err).Msg("upload failed")
	}
	logger.Info().Str("scan_id", upload.ScanID).Int("files", upload.FileCount).Msg("uploaded")

	slice, err := client.AnalyzeSlice(ctx, upload.ScanID, len(paths)/2)
	if err != nil {
		logger.Fatal().Err(err).Msg("slice analysis failed")
	}
	logger.Info().Str("region", slice.Metadata.AnatomicalRegion).Int("findings", len(slice.Findings)).Msg("slice analyzed")

	job, err := client.SubmitBatchAnalysis(ctx, upload.ScanID)
	if err != nil {
		logger.Fatal().Err(err).Msg("batch submission failed")
	}
	logger.Info().Str("analysis_id", job.AnalysisID).Msg("batch analysis submitted")

	raw, err := client.WaitForAnalysisComplete(ctx, job.AnalysisID, imaging.PollOptions{
		Timeout:      cfg.PollTimeout(),
		PollInterval: cfg.PollInterval(),
		OnProgress: func(st imaging.AnalysisStatus) {
			logger.Info().Str("status", st.Status).Float64("progress", st.Progress).Msg("polling")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("batch analysis did not complete")
	}

	batch, err := imaging.DecodeBatchResult(raw)
	if err != nil {
		logger.Fatal().Err(err).Msg("decoding batch result")
	}
	logger.Info().
		Int("findings", len(batch.Findings)).
		Int("recommendations", len(batch.Recommendations)).
		Str("urgency", batch.OverallSummary.Urgency).
		Msg("batch analysis complete")

	report, err := client.DownloadReport(ctx, job.AnalysisID, imaging.ReportFormatJSON)
	if err != nil {
		logger.Fatal().Err(err).Msg("downloading report")
	}
	logger.Info().Int("bytes", len(report)).Msg("report downloaded")

	if !keep {
		if err := client.DeleteScan(ctx, upload.ScanID); err != nil {
			logger.Fatal().Err(err).Msg("deleting scan")
		}
		logger.Info().Str("scan_id", upload.ScanID).Msg("scan deleted")
	}
}
