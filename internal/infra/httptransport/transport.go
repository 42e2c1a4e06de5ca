// Package httptransport implements the cluster job primitives over the
// GridStore HTTP job API. It is the collaborator behind gridstore.Transport:
// one call per primitive, policy timeouts enforced via context deadlines,
// and the policy's retry budget applied to transient submission failures.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/gridstore/client-go/pkg/clienterr"
	"github.com/gridstore/client-go/pkg/codec"
	"github.com/gridstore/client-go/pkg/domain/scanjob"
	"github.com/gridstore/client-go/pkg/logger"
)

// compressThreshold is the body size above which submit requests are
// gzipped when compression is enabled.
const compressThreshold = 1024

// Config contains configuration for the HTTP transport.
type Config struct {
	// BaseURL is the cluster job API endpoint, e.g. "http://node0:3000".
	BaseURL string

	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client

	// Compression enables gzip encoding of large submit bodies.
	Compression bool

	// Logger for transport diagnostics. Optional.
	Logger *logger.Logger
}

// Transport speaks the cluster's HTTP job API.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	compress   bool
	logger     *logger.Logger
}

// New creates a new HTTP transport.
func New(cfg Config) (*Transport, error) {
	if cfg.BaseURL == "" {
		return nil, clienterr.Parameter("cluster base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Transport{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		compress:   cfg.Compression,
		logger:     log.With("component", "httptransport"),
	}, nil
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

// Wire types for the job API.

type submitOptions struct {
	Concurrent  bool   `json:"concurrent"`
	Percent     int    `json:"percent"`
	Priority    string `json:"priority"`
	IncludeBins bool   `json:"include_bins"`
}

type submitUDF struct {
	Module   string     `json:"module"`
	Function string     `json:"function"`
	Args     codec.List `json:"args"`
}

type submitPolicy struct {
	TotalTimeoutMS  int64  `json:"total_timeout_ms"`
	SocketTimeoutMS int64  `json:"socket_timeout_ms"`
	MaxRetries      int    `json:"max_retries"`
	Durability      string `json:"durability"`
	Replica         string `json:"replica"`
}

type submitRequest struct {
	Namespace string        `json:"namespace"`
	Set       string        `json:"set"`
	Options   submitOptions `json:"options"`
	UDF       submitUDF     `json:"udf"`
	Policy    *submitPolicy `json:"policy,omitempty"`
}

type submitResponse struct {
	JobID uint64 `json:"job_id"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitScanJob submits a background scan job. Transient failures
// (network errors, 5xx) are retried up to the policy's retry budget;
// rejections (4xx) are not.
func (t *Transport) SubmitScanJob(ctx context.Context, scan *scanjob.Scan, policy *scanjob.ScanPolicy) (scanjob.Handle, error) {
	if scan == nil {
		return 0, clienterr.Parameter("scan descriptor is required")
	}
	module, function, args, ok := scan.UDF()
	if !ok {
		return 0, clienterr.Parameter("scan descriptor has no UDF bound")
	}

	req := submitRequest{
		Namespace: scan.Namespace(),
		Set:       scan.SetName(),
		Options: submitOptions{
			Concurrent:  scan.Concurrent(),
			Percent:     scan.Percent(),
			Priority:    string(scan.Priority()),
			IncludeBins: scan.IncludeBins(),
		},
		UDF: submitUDF{
			Module:   module,
			Function: function,
			Args:     args,
		},
	}
	if policy != nil {
		req.Policy = &submitPolicy{
			TotalTimeoutMS:  policy.TotalTimeout.Milliseconds(),
			SocketTimeoutMS: policy.SocketTimeout.Milliseconds(),
			MaxRetries:      policy.MaxRetries,
			Durability:      string(policy.Durability),
			Replica:         string(policy.Replica),
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, clienterr.Submission(err, "encode scan job request")
	}

	gzipped := false
	if t.compress && len(body) > compressThreshold {
		compressed, err := gzipBytes(body)
		if err != nil {
			return 0, clienterr.Submission(err, "compress scan job request")
		}
		body = compressed
		gzipped = true
	}

	if policy != nil && policy.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.TotalTimeout)
		defer cancel()
	}

	attempts := 1
	if policy != nil {
		attempts += policy.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return 0, t.submitCtxError(ctx.Err())
			case <-time.After(backoff):
			}
		}

		handle, retryable, err := t.doSubmit(ctx, body, gzipped)
		if err == nil {
			return handle, nil
		}
		lastErr = err
		if !retryable {
			return 0, err
		}
		t.logger.Warn("scan job submission failed, retrying",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"error", err,
		)
	}
	return 0, lastErr
}

func (t *Transport) doSubmit(ctx context.Context, body []byte, gzipped bool) (scanjob.Handle, bool, error) {
	url := t.baseURL + "/v1/scan-jobs"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, false, clienterr.Submission(err, "create scan job request")
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if gzipped {
		httpReq.Header.Set("Content-Encoding", "gzip")
	}

	t.logger.Debug("submitting scan job", "request_id", requestID, "url", url)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, t.submitCtxError(ctxErr)
		}
		return 0, true, clienterr.Submission(err, "scan job submission failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, true, clienterr.Submission(err, "read scan job response")
	}

	if resp.StatusCode >= 500 {
		return 0, true, submissionError(resp.StatusCode, respBody)
	}
	if resp.StatusCode >= 400 {
		return 0, false, submissionError(resp.StatusCode, respBody)
	}

	var parsed submitResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, false, clienterr.Submission(err, "decode scan job response")
	}

	t.logger.Debug("scan job accepted", "request_id", requestID, "job_id", parsed.JobID)
	return scanjob.Handle(parsed.JobID), false, nil
}

// ScanJobStatus queries the progress of a background job. Unknown job ids
// surface as JOB_NOT_FOUND; the status query is never retried.
func (t *Transport) ScanJobStatus(ctx context.Context, handle scanjob.Handle, policy *scanjob.InfoPolicy) (scanjob.RawJobStatus, error) {
	if policy != nil && policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	url := t.baseURL + "/v1/scan-jobs/" + handle.String()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return scanjob.RawJobStatus{}, clienterr.Transport(err, "create job status request")
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return scanjob.RawJobStatus{}, clienterr.Timeout(err, "job status query")
		}
		return scanjob.RawJobStatus{}, clienterr.Transport(err, "job status query failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return scanjob.RawJobStatus{}, clienterr.Transport(err, "read job status response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return scanjob.RawJobStatus{}, clienterr.JobNotFound(uint64(handle))
	case resp.StatusCode >= 400:
		code, message := parseAPIError(resp.StatusCode, respBody)
		return scanjob.RawJobStatus{}, clienterr.Transport(nil, message).
			WithDetails(map[string]any{"status": resp.StatusCode, "code": code})
	}

	var raw scanjob.RawJobStatus
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return scanjob.RawJobStatus{}, clienterr.Transport(err, "decode job status response")
	}
	return raw, nil
}

func (t *Transport) submitCtxError(ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return clienterr.Timeout(ctxErr, "scan job submission")
	}
	return clienterr.Submission(ctxErr, "scan job submission canceled")
}

func submissionError(statusCode int, body []byte) error {
	code, message := parseAPIError(statusCode, body)
	return clienterr.Submission(nil, message).
		WithDetails(map[string]any{"status": statusCode, "code": code})
}

func parseAPIError(statusCode int, body []byte) (code, message string) {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Code, parsed.Message
	}
	return "", fmt.Sprintf("cluster returned %d %s", statusCode, http.StatusText(statusCode))
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
