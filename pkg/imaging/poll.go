package imaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// PollOptions configures WaitForAnalysisComplete. OnProgress, when set, is
// called with every status observed, in order; it is an observable side
// effect only and never alters the polling control flow.
type PollOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	OnProgress   func(AnalysisStatus)
}

// DefaultPollOptions returns the default polling budget.
func DefaultPollOptions() PollOptions {
	return PollOptions{
		Timeout:      5 * time.Minute,
		PollInterval: 2 * time.Second,
	}
}

// WaitForAnalysisComplete polls an analysis job until it reaches a terminal
// state and returns its raw result payload.
//
// A failed job surfaces as AnalysisFailedError with the server-reported
// message. A job reported completed with no result payload is a protocol
// violation and surfaces as MalformedResponseError. If no terminal state is
// observed within the timeout, the call fails with TimeoutError; polling
// timeouts are never retried here, restarting the job is the caller's call.
func (c *Client) WaitForAnalysisComplete(ctx context.Context, analysisID string, opts PollOptions) (json.RawMessage, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultPollOptions().Timeout
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = DefaultPollOptions().PollInterval
	}

	start := time.Now()
	for {
		status, err := c.AnalysisStatus(ctx, analysisID)
		if err != nil {
			return nil, err
		}
		if opts.OnProgress != nil {
			opts.OnProgress(*status)
		}

		if status.Completed {
			if status.Status == StatusFailed {
				return nil, &AnalysisFailedError{AnalysisID: analysisID, Message: status.Error}
			}
			if len(status.Result) == 0 || string(status.Result) == "null" {
				return nil, &MalformedResponseError{AnalysisID: analysisID, Reason: "job completed with no result payload"}
			}
			c.log.Debug().Str("analysis_id", analysisID).Dur("elapsed", time.Since(start)).Msg("analysis complete")
			return status.Result, nil
		}

		if time.Since(start) >= opts.Timeout {
			return nil, &TimeoutError{Elapsed: time.Since(start), Budget: opts.Timeout}
		}

		select {
		case <-time.After(opts.PollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// DecodeBatchResult decodes the raw result of a completed batch job.
func DecodeBatchResult(raw json.RawMessage) (*BatchAnalysisResult, error) {
	var result BatchAnalysisResult
	if err := unmarshalResult(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DecodeSliceResult decodes the raw result of a completed single-slice job.
func DecodeSliceResult(raw json.RawMessage) (*SliceAnalysisResult, error) {
	var result SliceAnalysisResult
	if err := unmarshalResult(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func unmarshalResult(raw json.RawMessage, out any) error {
	if err := sonic.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{Reason: fmt.Sprintf("decoding result payload: %v", err)}
	}
	return nil
}
