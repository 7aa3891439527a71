// Package mockserver is an in-memory stand-in for the MendAI imaging
// service. The production imaging endpoints are stubbed, so the harness
// runs against this implementation instead: it owns scans and analysis
// jobs, simulates asynchronous job progress, and serves the same REST and
// websocket surface the real service is specified to expose.
package mockserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mendai-e2e/pkg/imaging"
)

// Config controls the simulated job behavior.
type Config struct {
	// JobDuration is how long an async batch job takes to complete.
	JobDuration time.Duration
	// JobTick is the progress update interval for async jobs and the
	// websocket stream.
	JobTick time.Duration
}

// DefaultConfig returns job timings suited to interactive use; tests pass
// much shorter ones.
func DefaultConfig() Config {
	return Config{
		JobDuration: 5 * time.Second,
		JobTick:     250 * time.Millisecond,
	}
}

type scanRecord struct {
	info  imaging.ScanInfo
	files []string
}

type jobRecord struct {
	status imaging.AnalysisStatus
	scanID string
}

// Server holds all mock state. Handlers mutate it under one mutex; async
// jobs progress on their own goroutines.
type Server struct {
	cfg Config
	log zerolog.Logger

	mu    sync.Mutex
	scans map[string]*scanRecord
	jobs  map[string]*jobRecord

	upgrader websocket.Upgrader
}

func New(cfg Config, logger zerolog.Logger) *Server {
	if cfg.JobDuration == 0 {
		cfg.JobDuration = DefaultConfig().JobDuration
	}
	if cfg.JobTick == 0 {
		cfg.JobTick = DefaultConfig().JobTick
	}
	return &Server{
		cfg:   cfg,
		log:   logger.With().Str("component", "mock-imaging").Logger(),
		scans: make(map[string]*scanRecord),
		jobs:  make(map[string]*jobRecord),
	}
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v0/imaging/upload", s.handleUpload)
	mux.HandleFunc("POST /api/v0/imaging/analyze/slice/{scanID}", s.handleAnalyzeSlice)
	mux.HandleFunc("POST /api/v0/imaging/analyze/batch/{scanID}", s.handleAnalyzeBatch)
	mux.HandleFunc("GET /api/v0/imaging/analysis/{analysisID}/status", s.handleAnalysisStatus)
	mux.HandleFunc("GET /api/v0/imaging/analysis/{analysisID}/stream", s.handleAnalysisStream)
	mux.HandleFunc("GET /api/v0/imaging/analysis/{analysisID}/report", s.handleReport)
	mux.HandleFunc("GET /api/v0/imaging/scans/{scanID}", s.handleScanInfo)
	mux.HandleFunc("DELETE /api/v0/imaging/scans/{scanID}", s.handleDeleteScan)
	mux.HandleFunc("GET /api/v0/imaging/patients/{patientID}/scans", s.handlePatientScans)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	patientID := r.FormValue("patient_id")
	if patientID == "" {
		s.writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	scanID := uuid.NewString()
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}

	s.mu.Lock()
	s.scans[scanID] = &scanRecord{
		info: imaging.ScanInfo{
			ScanID:     scanID,
			PatientID:  patientID,
			SliceCount: len(files),
			UploadedAt: time.Now().UTC().Format(time.RFC3339),
		},
		files: names,
	}
	s.mu.Unlock()

	s.log.Info().Str("scan_id", scanID).Str("patient_id", patientID).Int("files", len(files)).Msg("scan uploaded")

	s.writeJSON(w, http.StatusOK, imaging.UploadResponse{
		Success:   true,
		ScanID:    scanID,
		PatientID: patientID,
		FileCount: len(files),
	})
}

func (s *Server) handleAnalyzeSlice(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("scanID")

	s.mu.Lock()
	scan, ok := s.scans[scanID]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "scan not found: "+scanID)
		return
	}

	var req struct {
		SliceNumber int `json:"slice_number"`
	}
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SliceNumber < 0 || req.SliceNumber >= scan.info.SliceCount {
		s.writeError(w, http.StatusBadRequest, "slice_number out of range")
		return
	}

	s.writeJSON(w, http.StatusOK, makeSliceResult(req.SliceNumber, scan.info.SliceCount))
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("scanID")

	s.mu.Lock()
	scan, ok := s.scans[scanID]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "scan not found: "+scanID)
		return
	}

	var req struct {
		Async bool `json:"async"`
	}
	// Empty body means a plain synchronous batch request.
	_ = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)

	analysisID := uuid.NewString()
	result := makeBatchResult(analysisID, scan.info)

	if !req.Async {
		raw, _ := sonic.Marshal(result)
		s.mu.Lock()
		s.jobs[analysisID] = &jobRecord{
			scanID: scanID,
			status: imaging.AnalysisStatus{
				AnalysisID: analysisID,
				Status:     imaging.StatusCompleted,
				Progress:   100,
				Completed:  true,
				Result:     raw,
			},
		}
		s.mu.Unlock()
		s.writeJSON(w, http.StatusOK, result)
		return
	}

	s.mu.Lock()
	s.jobs[analysisID] = &jobRecord{
		scanID: scanID,
		status: imaging.AnalysisStatus{
			AnalysisID: analysisID,
			Status:     imaging.StatusPending,
		},
	}
	status := s.jobs[analysisID].status
	s.mu.Unlock()

	go s.runJob(analysisID, result)

	s.log.Info().Str("analysis_id", analysisID).Str("scan_id", scanID).Msg("async batch analysis started")
	s.writeJSON(w, http.StatusAccepted, status)
}

// runJob advances an async job from pending through processing to completed.
func (s *Server) runJob(analysisID string, result imaging.BatchAnalysisResult) {
	steps := int(s.cfg.JobDuration / s.cfg.JobTick)
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		time.Sleep(s.cfg.JobTick)

		s.mu.Lock()
		job, ok := s.jobs[analysisID]
		if !ok {
			// Scan was deleted mid-flight.
			s.mu.Unlock()
			return
		}
		if job.status.Completed {
			// Already terminal (e.g. forced to failed); never resurrect.
			s.mu.Unlock()
			return
		}
		if i < steps {
			job.status.Status = imaging.StatusProcessing
			job.status.Progress = float64(i) * 100 / float64(steps)
		} else {
			raw, _ := sonic.Marshal(result)
			job.status.Status = imaging.StatusCompleted
			job.status.Progress = 100
			job.status.Completed = true
			job.status.Result = raw
		}
		s.mu.Unlock()
	}
}

// FailJob forces a job into the failed terminal state with the given
// message. Tests use it to exercise failure paths.
func (s *Server) FailJob(analysisID, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[analysisID]
	if !ok {
		return false
	}
	job.status.Status = imaging.StatusFailed
	job.status.Completed = true
	job.status.Result = nil
	job.status.Error = message
	return true
}

func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	analysisID := r.PathValue("analysisID")

	s.mu.Lock()
	job, ok := s.jobs[analysisID]
	var status imaging.AnalysisStatus
	if ok {
		status = job.status
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "analysis not found: "+analysisID)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAnalysisStream(w http.ResponseWriter, r *http.Request) {
	analysisID := r.PathValue("analysisID")

	s.mu.Lock()
	_, ok := s.jobs[analysisID]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "analysis not found: "+analysisID)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var lastStatus string
	lastProgress := -1.0
	for {
		s.mu.Lock()
		job, ok := s.jobs[analysisID]
		var status imaging.AnalysisStatus
		if ok {
			status = job.status
		}
		s.mu.Unlock()
		if !ok {
			break
		}

		if status.Status != lastStatus || status.Progress != lastProgress {
			lastStatus = status.Status
			lastProgress = status.Progress
			msg, _ := sonic.Marshal(status)
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
		if status.Completed {
			break
		}
		time.Sleep(s.cfg.JobTick)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	analysisID := r.PathValue("analysisID")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "pdf" {
		s.writeError(w, http.StatusBadRequest, "unsupported format: "+format)
		return
	}

	s.mu.Lock()
	job, ok := s.jobs[analysisID]
	var status imaging.AnalysisStatus
	if ok {
		status = job.status
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "analysis not found: "+analysisID)
		return
	}
	if !status.Completed || status.Status != imaging.StatusCompleted {
		s.writeError(w, http.StatusConflict, "analysis not complete: "+analysisID)
		return
	}

	if format == "pdf" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(renderPDFReport(analysisID))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.Result)
}

func (s *Server) handleScanInfo(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("scanID")

	s.mu.Lock()
	scan, ok := s.scans[scanID]
	var info imaging.ScanInfo
	if ok {
		info = scan.info
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "scan not found: "+scanID)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handlePatientScans(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientID")

	s.mu.Lock()
	scans := []imaging.ScanInfo{}
	for _, scan := range s.scans {
		if scan.info.PatientID == patientID {
			scans = append(scans, scan.info)
		}
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, scans)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("scanID")

	s.mu.Lock()
	_, ok := s.scans[scanID]
	if ok {
		delete(s.scans, scanID)
		for id, job := range s.jobs {
			if job.scanID == scanID {
				delete(s.jobs, id)
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "scan not found: "+scanID)
		return
	}
	s.log.Info().Str("scan_id", scanID).Msg("scan deleted")
	s.writeJSON(w, http.StatusOK, imaging.DeleteResponse{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, imaging.HealthResponse{Status: "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
