package fixtures

// Manifest is the JSON index of all test fixture cases, produced by the
// offline fixture scan. It is read-only at runtime.
type Manifest struct {
	GeneratedAt string         `json:"generated_at"`
	Version     string         `json:"version"`
	Cases       []CaseMetadata `json:"cases"`
}

// CaseMetadata describes one fixture case: a directory of ordered image
// files. The order of Files defines slice order.
type CaseMetadata struct {
	CaseID    string   `json:"case_id"`
	Directory string   `json:"directory"`
	FileCount int      `json:"file_count"`
	Files     []string `json:"files"`
	Metadata  CaseInfo `json:"metadata"`
}

// CaseInfo holds descriptive fields only. Nothing in the harness depends
// on them.
type CaseInfo struct {
	Modality  string `json:"modality,omitempty"`
	BodyPart  string `json:"body_part,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}
