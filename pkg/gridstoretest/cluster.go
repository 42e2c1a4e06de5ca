// Package gridstoretest provides an in-process fake GridStore cluster for
// tests and demos. It implements the same HTTP job API the real cluster
// exposes, with an in-memory job table and deterministic, configurable
// progress: each status query returns the current snapshot and then
// advances the job by the configured step.
package gridstoretest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"

	"github.com/gridstore/client-go/pkg/domain/scanjob"
)

// Job is the fake cluster's view of one submitted background job.
type Job struct {
	ID             uint64
	Namespace      string
	Set            string
	Module         string
	Function       string
	Args           json.RawMessage
	Policy         json.RawMessage
	ProgressPct    int
	RecordsScanned int64
	StatusCode     int
}

// Cluster is a fake cluster backed by httptest.Server.
type Cluster struct {
	srv *httptest.Server

	mu             sync.Mutex
	jobs           map[uint64]*Job
	nextID         uint64
	progressStep   int
	recordsPerStep int64

	failNextStatus  int
	failNextCode    string
	failNextMessage string
}

// Option configures the fake cluster.
type Option func(*Cluster)

// WithProgressStep sets how far a job advances after each status query.
// Zero freezes jobs in place (useful for idempotence tests).
func WithProgressStep(pct int) Option {
	return func(c *Cluster) { c.progressStep = pct }
}

// WithRecordsPerStep sets how many records each progress step scans.
func WithRecordsPerStep(n int64) Option {
	return func(c *Cluster) { c.recordsPerStep = n }
}

// New starts a fake cluster. Callers must Close it.
func New(opts ...Option) *Cluster {
	c := &Cluster{
		jobs:           make(map[uint64]*Job),
		progressStep:   50,
		recordsPerStep: 1000,
	}
	for _, opt := range opts {
		opt(c)
	}

	r := chi.NewRouter()
	r.Post("/v1/scan-jobs", c.handleSubmit)
	r.Get("/v1/scan-jobs/{jobID}", c.handleStatus)
	c.srv = httptest.NewServer(r)
	return c
}

// URL returns the cluster's base URL.
func (c *Cluster) URL() string {
	return c.srv.URL
}

// Close shuts the cluster down.
func (c *Cluster) Close() {
	c.srv.Close()
}

// FailNextSubmit makes the next submission fail with the given HTTP
// status and error body.
func (c *Cluster) FailNextSubmit(httpStatus int, code, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNextStatus = httpStatus
	c.failNextCode = code
	c.failNextMessage = message
}

// CompleteJob forces a job to SUCCEEDED with full progress.
func (c *Cluster) CompleteJob(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if job, ok := c.jobs[id]; ok {
		job.ProgressPct = 100
		job.StatusCode = scanjob.StatusSucceeded.Code()
	}
}

// FailJob forces a job to FAILED.
func (c *Cluster) FailJob(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if job, ok := c.jobs[id]; ok {
		job.StatusCode = scanjob.StatusFailed.Code()
	}
}

// SubmittedJobs returns a snapshot of every job the cluster accepted.
func (c *Cluster) SubmittedJobs() []Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		out = append(out, *job)
	}
	return out
}

// JobByID returns a snapshot of one job.
func (c *Cluster) JobByID(id uint64) (Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

type submitBody struct {
	Namespace string `json:"namespace"`
	Set       string `json:"set"`
	UDF       struct {
		Module   string          `json:"module"`
		Function string          `json:"function"`
		Args     json.RawMessage `json:"args"`
	} `json:"udf"`
	Policy json.RawMessage `json:"policy"`
}

func (c *Cluster) handleSubmit(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	if c.failNextStatus != 0 {
		status, code, message := c.failNextStatus, c.failNextCode, c.failNextMessage
		c.failNextStatus = 0
		c.mu.Unlock()
		writeError(w, status, code, message)
		return
	}
	c.mu.Unlock()

	var reader io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "PARAMETER", "invalid gzip body")
			return
		}
		defer zr.Close()
		reader = zr
	}

	var body submitBody
	if err := json.NewDecoder(reader).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "PARAMETER", "invalid request body")
		return
	}
	if body.Namespace == "" || body.Set == "" || body.UDF.Module == "" || body.UDF.Function == "" {
		writeError(w, http.StatusBadRequest, "PARAMETER", "namespace, set, module and function are required")
		return
	}

	c.mu.Lock()
	c.nextID++
	job := &Job{
		ID:          c.nextID,
		Namespace:   body.Namespace,
		Set:         body.Set,
		Module:      body.UDF.Module,
		Function:    body.UDF.Function,
		Args:        body.UDF.Args,
		Policy:      body.Policy,
		ProgressPct: 0,
		StatusCode:  scanjob.StatusInProgress.Code(),
	}
	c.jobs[job.ID] = job
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]uint64{"job_id": job.ID})
}

func (c *Cluster) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "PARAMETER", "invalid job id")
		return
	}

	c.mu.Lock()
	job, ok := c.jobs[id]
	if !ok {
		c.mu.Unlock()
		writeError(w, http.StatusNotFound, "JOB_NOT_FOUND", "job "+strconv.FormatUint(id, 10)+" not found")
		return
	}

	snapshot := scanjob.RawJobStatus{
		ProgressPct:    job.ProgressPct,
		RecordsScanned: job.RecordsScanned,
		StatusCode:     job.StatusCode,
	}

	// Advance after snapshotting so the first poll observes the job as
	// it was accepted.
	if job.StatusCode == scanjob.StatusInProgress.Code() && c.progressStep > 0 {
		job.ProgressPct += c.progressStep
		job.RecordsScanned += c.recordsPerStep
		if job.ProgressPct >= 100 {
			job.ProgressPct = 100
			job.StatusCode = scanjob.StatusSucceeded.Code()
		}
	}
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, snapshot)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
