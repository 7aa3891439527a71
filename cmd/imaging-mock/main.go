package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mendai-e2e/pkg/mockserver"
)

func main() {
	var addr string
	var jobDuration time.Duration
	flag.StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	flag.DurationVar(&jobDuration, "job-duration", 5*time.Second, "How long async analysis jobs take to complete")
	flag.Parse()

	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if isatty() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	srv := mockserver.New(mockserver.Config{JobDuration: jobDuration}, logger)

	logger.Info().Str("addr", addr).Dur("job_duration", jobDuration).Msg("mock imaging service listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func isatty() bool {
	info, err := os.Stdout.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
