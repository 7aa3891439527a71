package imaging

import "encoding/json"

// Finding is one detected feature in an analysis result.
type Finding struct {
	ID                 string   `json:"id,omitempty"`
	Type               string   `json:"type"`     // normal | abnormal | suspicious
	Severity           string   `json:"severity"` // none | mild | moderate | severe | critical
	Category           string   `json:"category"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Confidence         float64  `json:"confidence"` // [0.0, 1.0]
	SliceLocations     []int    `json:"slice_locations,omitempty"`
	SupportingEvidence []string `json:"supporting_evidence,omitempty"`
}

// Recommendation is a clinical follow-up suggested by a batch analysis.
type Recommendation struct {
	ID          string `json:"id,omitempty"`
	Priority    string `json:"priority"` // urgent | high | routine | low
	Category    string `json:"category"` // follow_up | intervention | consultation | additional_imaging | monitoring
	Title       string `json:"title"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"` // immediate | urgent | routine | elective
	Timeframe   string `json:"timeframe,omitempty"`
	Rationale   string `json:"rationale"`
}

// QualityAssessment scores the image quality of an analyzed slice.
type QualityAssessment struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// SliceAnalysisMetadata describes one single-slice analysis run.
type SliceAnalysisMetadata struct {
	SliceNumber      int    `json:"slice_number"`
	TotalSlices      int    `json:"total_slices"`
	AnatomicalRegion string `json:"anatomical_region"`
	Timestamp        string `json:"timestamp"`
	ModelVersion     string `json:"model_version"`
	ProcessingTimeMs int    `json:"processing_time_ms"`
}

// SliceAnalysisResult is the synchronous response for a single slice.
type SliceAnalysisResult struct {
	AnalysisType      string                `json:"analysis_type"` // "single_slice"
	Metadata          SliceAnalysisMetadata `json:"metadata"`
	QualityAssessment QualityAssessment     `json:"quality_assessment"`
	Findings          []Finding             `json:"findings"`
	Summary           string                `json:"summary"`
}

// SliceRange is the span of slices covered by a batch analysis.
type SliceRange struct {
	Start         int `json:"start"`
	End           int `json:"end"`
	TotalAnalyzed int `json:"total_analyzed"`
}

// BatchAnalysisMetadata describes one batch analysis run.
type BatchAnalysisMetadata struct {
	AnalysisID       string     `json:"analysis_id"`
	PatientID        string     `json:"patient_id"`
	ScanID           string     `json:"scan_id"`
	SliceRange       SliceRange `json:"slice_range"`
	Timestamp        string     `json:"timestamp"`
	ModelVersion     string     `json:"model_version"`
	ProcessingTimeMs int        `json:"processing_time_ms"`
}

// OverallSummary condenses a batch analysis into one statement.
type OverallSummary struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Urgency    string  `json:"urgency"`
}

// BatchAnalysisResult is the full result of a batch analysis.
type BatchAnalysisResult struct {
	AnalysisType          string                `json:"analysis_type"` // "batch_analysis"
	Metadata              BatchAnalysisMetadata `json:"metadata"`
	OverallSummary        OverallSummary        `json:"overall_summary"`
	Findings              []Finding             `json:"findings"`
	Recommendations       []Recommendation      `json:"recommendations"`
	DifferentialDiagnosis []string              `json:"differential_diagnosis,omitempty"`
}

// UploadResponse is the server's acknowledgement of an image upload.
type UploadResponse struct {
	Success   bool   `json:"success"`
	ScanID    string `json:"scan_id"`
	PatientID string `json:"patient_id"`
	FileCount int    `json:"file_count"`
}

// ScanInfo is the server-side identity of an uploaded image set.
type ScanInfo struct {
	ScanID     string `json:"scan_id"`
	PatientID  string `json:"patient_id"`
	SliceCount int    `json:"slice_count"`
	UploadedAt string `json:"uploaded_at"`
}

// Job states reported by the analysis status endpoint.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// AnalysisStatus is one observation of an asynchronous analysis job.
// Completed is true iff the job is terminal; Result and Error are mutually
// exclusive. Result stays raw because slice and batch jobs carry different
// payloads.
type AnalysisStatus struct {
	AnalysisID string          `json:"analysis_id"`
	Status     string          `json:"status"`
	Progress   float64         `json:"progress"`
	Completed  bool            `json:"completed"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// DeleteResponse acknowledges a scan deletion.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the service liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}
