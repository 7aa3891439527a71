package mockserver

import (
	"fmt"
	"time"

	"mendai-e2e/pkg/imaging"
)

// Synthesized analysis content. Deterministic on slice position so test
// assertions are stable across runs.

func anatomicalRegion(sliceNumber, totalSlices int) string {
	position := float64(sliceNumber) / float64(totalSlices)
	switch {
	case position < 0.3:
		return "Upper Thorax"
	case position < 0.7:
		return "Mid Thorax"
	default:
		return "Lower Thorax"
	}
}

func makeSliceResult(sliceNumber, totalSlices int) imaging.SliceAnalysisResult {
	region := anatomicalRegion(sliceNumber, totalSlices)

	var findings []imaging.Finding
	var summary string
	if sliceNumber%3 == 1 {
		findings = []imaging.Finding{{
			ID:          fmt.Sprintf("finding_%d_001", sliceNumber),
			Type:        "suspicious",
			Severity:    "mild",
			Category:    "lung_parenchyma",
			Title:       "Nodular Opacity",
			Description: "Small nodular opacity detected in right upper lobe, approximately 6mm in diameter",
			Confidence:  0.78,
			SupportingEvidence: []string{
				"Well-defined margins",
				"No calcification visible",
				"Recommend follow-up imaging",
			},
		}}
		summary = "Small nodular opacity noted, recommend follow-up."
	} else {
		findings = []imaging.Finding{{
			ID:          fmt.Sprintf("finding_%d_001", sliceNumber),
			Type:        "normal",
			Severity:    "none",
			Category:    "lung_parenchyma",
			Title:       "Lung Parenchyma",
			Description: "Normal lung parenchyma with clear visualization and no abnormalities",
			Confidence:  0.93,
			SupportingEvidence: []string{
				"No nodules or masses detected",
				"Clear airways bilaterally",
				"Symmetric lung fields",
			},
		}}
		summary = "Normal appearance with no acute findings."
	}

	return imaging.SliceAnalysisResult{
		AnalysisType: "single_slice",
		Metadata: imaging.SliceAnalysisMetadata{
			SliceNumber:      sliceNumber,
			TotalSlices:      totalSlices,
			AnatomicalRegion: region,
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
			ModelVersion:     "mock-v1.0",
			ProcessingTimeMs: 12,
		},
		QualityAssessment: imaging.QualityAssessment{Score: 0.91, Issues: []string{}},
		Findings:          findings,
		Summary:           summary,
	}
}

func makeBatchResult(analysisID string, scan imaging.ScanInfo) imaging.BatchAnalysisResult {
	findings := []imaging.Finding{{
		ID:          "finding_batch_001",
		Type:        "abnormal",
		Severity:    "mild",
		Category:    "lung_parenchyma",
		Title:       "Nodular Opacity",
		Description: "Small nodular opacity noted in right upper lobe (approximately 6-8mm)",
		Confidence:  0.82,
		SliceLocations: []int{
			scan.SliceCount * 3 / 10,
			scan.SliceCount * 4 / 10,
		},
		SupportingEvidence: []string{
			"Consistent appearance across multiple slices",
			"Well-defined margins suggest benign etiology",
			"No associated lymphadenopathy",
		},
	}}

	recommendations := []imaging.Recommendation{{
		ID:          "rec_001",
		Priority:    "routine",
		Category:    "follow_up",
		Title:       "Follow-up CT Recommended",
		Description: "Recommend follow-up CT scan in 3-6 months to assess stability of nodular opacity",
		Urgency:     "routine",
		Timeframe:   "3_to_6_months",
		Rationale:   "Small nodular opacity requires interval assessment to exclude growth",
	}}

	return imaging.BatchAnalysisResult{
		AnalysisType: "batch_analysis",
		Metadata: imaging.BatchAnalysisMetadata{
			AnalysisID: analysisID,
			PatientID:  scan.PatientID,
			ScanID:     scan.ScanID,
			SliceRange: imaging.SliceRange{
				Start:         0,
				End:           scan.SliceCount - 1,
				TotalAnalyzed: scan.SliceCount,
			},
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
			ModelVersion:     "mock-v1.0",
			ProcessingTimeMs: 340,
		},
		OverallSummary: imaging.OverallSummary{
			Title:      "Batch Analysis Summary",
			Content:    fmt.Sprintf("Analysis of %d CT slices revealed a small nodular opacity in the right upper lobe. Recommend follow-up imaging in 3-6 months.", scan.SliceCount),
			Confidence: 0.84,
			Urgency:    "routine",
		},
		Findings:              findings,
		Recommendations:       recommendations,
		DifferentialDiagnosis: []string{"Benign granuloma", "Small hamartoma", "Early neoplasm (low probability)"},
	}
}

// renderPDFReport produces a minimal single-page PDF wrapper around the
// analysis id. Enough for format and signature assertions, nothing more.
func renderPDFReport(analysisID string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Imaging report %s) Tj ET", analysisID)
	return []byte(fmt.Sprintf(`%%PDF-1.4
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >> endobj
4 0 obj << /Length %d >> stream
%s
endstream endobj
trailer << /Root 1 0 R >>
%%%%EOF
`, len(content), content))
}
