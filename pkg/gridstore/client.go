// Package gridstore is the client for GridStore background scan-apply
// jobs. A scan-apply job runs a server-resident UDF against every record
// matched by a scan; the cluster executes it asynchronously and the client
// polls for progress with the returned job handle.
package gridstore

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"

	"github.com/gridstore/client-go/pkg/clienterr"
	"github.com/gridstore/client-go/pkg/codec"
	"github.com/gridstore/client-go/pkg/domain/scanjob"
	"github.com/gridstore/client-go/pkg/logger"
	"github.com/gridstore/client-go/pkg/validator"
)

// Transport issues the two cluster primitives the client consumes.
// Implementations must be safe for concurrent use.
type Transport interface {
	// SubmitScanJob submits a background scan job and returns the
	// cluster-assigned job handle. A nil policy means the cluster
	// default applies.
	SubmitScanJob(ctx context.Context, scan *scanjob.Scan, policy *scanjob.ScanPolicy) (scanjob.Handle, error)

	// ScanJobStatus queries the current progress of a background job.
	ScanJobStatus(ctx context.Context, handle scanjob.Handle, policy *scanjob.InfoPolicy) (scanjob.RawJobStatus, error)

	// Close releases transport resources.
	Close() error
}

// Client submits background scan-apply jobs and polls their status.
// It holds no mutable state between calls, so concurrent use needs no
// external locking.
type Client struct {
	transport Transport
	validate  *validator.Validator
	logger    *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger. The default discards all output.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// New creates a new Client over the given transport.
func New(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, clienterr.Parameter("transport is required")
	}

	c := &Client{
		transport: transport,
		validate:  validator.New(),
		logger:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// ScanApply submits a background job that applies the UDF
// module.function to every record in namespace/set matched by the scan.
// args must be a slice or array of values convertible to the cluster's
// native representation; pass an empty slice for a no-argument UDF.
//
// The call returns as soon as the cluster acknowledges the job, not when
// it completes. Validation failures short-circuit before any remote call,
// and the scan descriptor never outlives the call.
func (c *Client) ScanApply(
	ctx context.Context,
	namespace, set, module, function string,
	args any,
	policy *scanjob.ScanPolicyConfig,
	options *scanjob.ScanOptionsConfig,
) (scanjob.Handle, error) {
	if namespace == "" || set == "" {
		return 0, clienterr.Parameter("namespace and set should not be empty")
	}
	if module == "" {
		return 0, clienterr.Parameter("module should not be empty")
	}
	if function == "" {
		return 0, clienterr.Parameter("function should not be empty")
	}

	pol, err := policy.Resolve(c.validate)
	if err != nil {
		return 0, err
	}

	arglist, err := codec.MarshalList(args)
	if err != nil {
		return 0, err
	}

	scan, err := scanjob.NewScan(namespace, set, options, c.validate)
	if err != nil {
		return 0, err
	}
	defer scan.Close()

	if err := scan.ApplyEach(module, function, arglist); err != nil {
		return 0, err
	}

	// Exactly one submission per call; retry, if any, belongs to the
	// transport primitive per the policy's retry budget.
	handle, err := c.transport.SubmitScanJob(ctx, scan, pol)
	if err != nil {
		return 0, err
	}

	c.logger.Info("background scan job submitted",
		"namespace", namespace,
		"set", set,
		"module", module,
		"function", function,
		"job_id", handle,
	)
	return handle, nil
}

// ScanInfo queries the current progress of a background job. The returned
// record is a fresh snapshot; callers poll repeatedly to observe the job
// reach a terminal status.
func (c *Client) ScanInfo(
	ctx context.Context,
	handle scanjob.Handle,
	policy *scanjob.InfoPolicyConfig,
) (scanjob.StatusRecord, error) {
	pol, err := policy.Resolve(c.validate)
	if err != nil {
		return scanjob.StatusRecord{}, err
	}

	raw, err := c.transport.ScanJobStatus(ctx, handle, pol)
	if err != nil {
		return scanjob.StatusRecord{}, err
	}

	status, err := scanjob.StatusFromCode(raw.StatusCode)
	if err != nil {
		return scanjob.StatusRecord{}, err
	}

	return scanjob.StatusRecord{
		ProgressPct:    raw.ProgressPct,
		RecordsScanned: raw.RecordsScanned,
		Status:         status,
	}, nil
}

// Wait polls the job with a jittered interval until it reaches a terminal
// status or ctx is done. interval defaults to one second.
func (c *Client) Wait(
	ctx context.Context,
	handle scanjob.Handle,
	interval time.Duration,
	policy *scanjob.InfoPolicyConfig,
) (scanjob.StatusRecord, error) {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: interval / 10})
	defer ticker.Stop()

	for {
		rec, err := c.ScanInfo(ctx, handle, policy)
		if err != nil {
			return scanjob.StatusRecord{}, err
		}
		if rec.Status.Terminal() {
			c.logger.Info("background scan job finished",
				"job_id", handle,
				"status", rec.Status.String(),
				"records_scanned", rec.RecordsScanned,
			)
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return scanjob.StatusRecord{}, clienterr.Timeout(ctx.Err(), "wait for job "+handle.String())
		case <-ticker.C:
		}
	}
}
