package httptransport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gridstore/client-go/internal/infra/httptransport"
	"github.com/gridstore/client-go/pkg/clienterr"
	"github.com/gridstore/client-go/pkg/codec"
	"github.com/gridstore/client-go/pkg/domain/scanjob"
	"github.com/gridstore/client-go/pkg/gridstoretest"
	"github.com/gridstore/client-go/pkg/validator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTransport(t *testing.T, cfg httptransport.Config) *httptransport.Transport {
	t.Helper()
	tr, err := httptransport.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func newScan(t *testing.T, args ...any) *scanjob.Scan {
	t.Helper()
	scan, err := scanjob.NewScan("test", "demo", nil, validator.New())
	require.NoError(t, err)
	list, err := codec.MarshalList(args)
	require.NoError(t, err)
	require.NoError(t, scan.ApplyEach("mymodule", "myfunc", list))
	return scan
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := httptransport.New(httptransport.Config{})
	assert.True(t, clienterr.IsKind(err, clienterr.KindParameter))
}

func TestSubmitScanJob(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL()})

	handle, err := tr.SubmitScanJob(context.Background(), newScan(t, 1, "a", 3.5), nil)
	require.NoError(t, err)
	assert.Positive(t, uint64(handle))

	job, ok := cluster.JobByID(uint64(handle))
	require.True(t, ok)
	assert.Equal(t, "test", job.Namespace)
	assert.Equal(t, "demo", job.Set)
	assert.Equal(t, "mymodule", job.Module)
	assert.Equal(t, "myfunc", job.Function)
	assert.Empty(t, job.Policy, "no policy override on the wire when none given")
}

func TestSubmitScanJob_NilOrUnboundScan(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL()})

	_, err := tr.SubmitScanJob(context.Background(), nil, nil)
	assert.True(t, clienterr.IsKind(err, clienterr.KindParameter))

	unbound, err := scanjob.NewScan("test", "demo", nil, validator.New())
	require.NoError(t, err)
	_, err = tr.SubmitScanJob(context.Background(), unbound, nil)
	assert.True(t, clienterr.IsKind(err, clienterr.KindParameter))

	assert.Empty(t, cluster.SubmittedJobs())
}

func TestSubmitScanJob_RejectionNotRetried(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL()})

	cluster.FailNextSubmit(http.StatusBadRequest, "PARAMETER", "bad namespace")

	policy := &scanjob.ScanPolicy{MaxRetries: 3}
	_, err := tr.SubmitScanJob(context.Background(), newScan(t), policy)
	require.Error(t, err)
	assert.True(t, clienterr.IsKind(err, clienterr.KindSubmission))
	assert.Contains(t, err.Error(), "bad namespace")

	// The rejection consumed the scripted failure; had the transport
	// retried, a job would have been accepted.
	assert.Empty(t, cluster.SubmittedJobs())
}

func TestSubmitScanJob_TransientFailureRetried(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL()})

	cluster.FailNextSubmit(http.StatusServiceUnavailable, "UNAVAILABLE", "node restarting")

	policy := &scanjob.ScanPolicy{MaxRetries: 2}
	handle, err := tr.SubmitScanJob(context.Background(), newScan(t), policy)
	require.NoError(t, err)
	assert.Positive(t, uint64(handle))
	assert.Len(t, cluster.SubmittedJobs(), 1)
}

func TestSubmitScanJob_TransientFailureNoBudget(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL()})

	cluster.FailNextSubmit(http.StatusServiceUnavailable, "UNAVAILABLE", "node restarting")

	_, err := tr.SubmitScanJob(context.Background(), newScan(t), nil)
	require.Error(t, err)
	assert.True(t, clienterr.IsKind(err, clienterr.KindSubmission))
	assert.Empty(t, cluster.SubmittedJobs())
}

func TestSubmitScanJob_TotalTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: slow.URL})

	policy := &scanjob.ScanPolicy{TotalTimeout: 50 * time.Millisecond}
	_, err := tr.SubmitScanJob(context.Background(), newScan(t), policy)
	assert.True(t, clienterr.IsKind(err, clienterr.KindTimeout), "got %v", err)
}

func TestSubmitScanJob_Compression(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL(), Compression: true})

	big := strings.Repeat("x", 4096)
	handle, err := tr.SubmitScanJob(context.Background(), newScan(t, big), nil)
	require.NoError(t, err)

	job, ok := cluster.JobByID(uint64(handle))
	require.True(t, ok)
	assert.Contains(t, string(job.Args), big, "cluster decoded the gzipped body")
}

func TestScanJobStatus(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL()})

	handle, err := tr.SubmitScanJob(context.Background(), newScan(t), nil)
	require.NoError(t, err)

	raw, err := tr.ScanJobStatus(context.Background(), handle, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, raw.ProgressPct)
	assert.Equal(t, scanjob.StatusInProgress.Code(), raw.StatusCode)
}

func TestScanJobStatus_NotFound(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: cluster.URL()})

	_, err := tr.ScanJobStatus(context.Background(), scanjob.Handle(42), nil)
	assert.True(t, clienterr.IsKind(err, clienterr.KindJobNotFound))
	assert.Contains(t, err.Error(), "42")
}

func TestScanJobStatus_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()
	tr := newTransport(t, httptransport.Config{BaseURL: slow.URL})

	policy := &scanjob.InfoPolicy{Timeout: 50 * time.Millisecond}
	_, err := tr.ScanJobStatus(context.Background(), scanjob.Handle(1), policy)
	assert.True(t, clienterr.IsKind(err, clienterr.KindTimeout), "got %v", err)
}
