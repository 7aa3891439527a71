package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const apiPrefix = "/api/v0/imaging"

// ClientConfig holds the transport budgets of a Client. Each network-facing
// call carries its own timeout; exceeding it surfaces as a TimeoutError,
// never a silent hang.
type ClientConfig struct {
	BaseURL        string
	UploadTimeout  time.Duration
	AnalyzeTimeout time.Duration
	BatchTimeout   time.Duration
}

// DefaultClientConfig returns the default budgets for a service at baseURL.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:        baseURL,
		UploadTimeout:  60 * time.Second,
		AnalyzeTimeout: 30 * time.Second,
		BatchTimeout:   180 * time.Second,
	}
}

// Client is a typed HTTP client for the remote imaging service. Calls share
// the underlying transport but no mutable state, so a Client is safe for
// concurrent use.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  zerolog.Logger
}

func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = DefaultClientConfig(cfg.BaseURL).UploadTimeout
	}
	if cfg.AnalyzeTimeout == 0 {
		cfg.AnalyzeTimeout = DefaultClientConfig(cfg.BaseURL).AnalyzeTimeout
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = DefaultClientConfig(cfg.BaseURL).BatchTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  logger.With().Str("component", "imaging-client").Logger(),
	}
}

// UploadMedicalImages uploads one or more image files for a patient as a
// single multipart request. Every input path is checked before any network
// call, so a bad path never produces a partial upload.
func (c *Client) UploadMedicalImages(ctx context.Context, filePaths []string, patientID string) (*UploadResponse, error) {
	for _, path := range filePaths {
		if _, err := os.Stat(path); err != nil {
			return nil, &FileNotFoundError{Path: path}
		}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, path := range filePaths {
		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, &FileNotFoundError{Path: path}
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField("patient_id", patientID); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	c.log.Debug().Int("files", len(filePaths)).Str("patient_id", patientID).Msg("uploading images")

	var resp UploadResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/upload", writer.FormDataContentType(), body.Bytes(), c.cfg.UploadTimeout, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AnalyzeSlice requests a synchronous analysis of one slice. The service is
// expected to answer within the analyze timeout window.
func (c *Client) AnalyzeSlice(ctx context.Context, scanID string, sliceNumber int) (*SliceAnalysisResult, error) {
	req := struct {
		SliceNumber int `json:"slice_number"`
	}{SliceNumber: sliceNumber}

	var result SliceAnalysisResult
	err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/analyze/slice/"+url.PathEscape(scanID), req, c.cfg.AnalyzeTimeout, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeBatch requests a synchronous batch analysis of a whole scan, with
// a longer timeout budget than single-slice analysis.
func (c *Client) AnalyzeBatch(ctx context.Context, scanID string) (*BatchAnalysisResult, error) {
	var result BatchAnalysisResult
	err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/analyze/batch/"+url.PathEscape(scanID), struct{}{}, c.cfg.BatchTimeout, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitBatchAnalysis starts a batch analysis as an asynchronous job and
// returns its initial status. Use WaitForAnalysisComplete to await the
// result.
func (c *Client) SubmitBatchAnalysis(ctx context.Context, scanID string) (*AnalysisStatus, error) {
	req := struct {
		Async bool `json:"async"`
	}{Async: true}

	var status AnalysisStatus
	err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/analyze/batch/"+url.PathEscape(scanID), req, c.cfg.AnalyzeTimeout, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// AnalysisStatus fetches the current state of one analysis job. Side-effect
// free.
func (c *Client) AnalysisStatus(ctx context.Context, analysisID string) (*AnalysisStatus, error) {
	var status AnalysisStatus
	err := c.doJSON(ctx, http.MethodGet, apiPrefix+"/analysis/"+url.PathEscape(analysisID)+"/status", nil, c.cfg.AnalyzeTimeout, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// ScanInfo fetches the server-side record of an uploaded scan.
func (c *Client) ScanInfo(ctx context.Context, scanID string) (*ScanInfo, error) {
	var info ScanInfo
	err := c.doJSON(ctx, http.MethodGet, apiPrefix+"/scans/"+url.PathEscape(scanID), nil, c.cfg.AnalyzeTimeout, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ListPatientScans lists every scan uploaded for one patient.
func (c *Client) ListPatientScans(ctx context.Context, patientID string) ([]ScanInfo, error) {
	var scans []ScanInfo
	err := c.doJSON(ctx, http.MethodGet, apiPrefix+"/patients/"+url.PathEscape(patientID)+"/scans", nil, c.cfg.AnalyzeTimeout, &scans)
	if err != nil {
		return nil, err
	}
	return scans, nil
}

// Report formats accepted by DownloadReport.
const (
	ReportFormatPDF  = "pdf"
	ReportFormatJSON = "json"
)

// DownloadReport fetches the rendered report of a completed analysis.
func (c *Client) DownloadReport(ctx context.Context, analysisID, format string) ([]byte, error) {
	if format != ReportFormatPDF && format != ReportFormatJSON {
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
	path := apiPrefix + "/analysis/" + url.PathEscape(analysisID) + "/report?format=" + format
	return c.doRaw(ctx, http.MethodGet, path, "", nil, c.cfg.BatchTimeout)
}

// DeleteScan removes an uploaded scan and its analyses from the server.
func (c *Client) DeleteScan(ctx context.Context, scanID string) error {
	var resp DeleteResponse
	err := c.doJSON(ctx, http.MethodDelete, apiPrefix+"/scans/"+url.PathEscape(scanID), nil, c.cfg.AnalyzeTimeout, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return &MalformedResponseError{Reason: "delete acknowledged without success"}
	}
	return nil
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) error {
	var resp HealthResponse
	return c.doJSON(ctx, http.MethodGet, "/health", nil, c.cfg.AnalyzeTimeout, &resp)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, timeout time.Duration, out any) error {
	var payload []byte
	contentType := ""
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		if err != nil {
			return err
		}
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, payload, timeout, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte, timeout time.Duration, out any) error {
	raw, err := c.doRaw(ctx, method, path, contentType, payload, timeout)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{Reason: fmt.Sprintf("decoding response for %s %s: %v", method, path, err)}
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path, contentType string, payload []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := c.cfg.BaseURL + path
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Elapsed: time.Since(start), Budget: timeout}
		}
		return nil, &NetworkError{URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Elapsed: time.Since(start), Budget: timeout}
		}
		return nil, &NetworkError{URL: fullURL, Err: err}
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
