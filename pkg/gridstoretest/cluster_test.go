package gridstoretest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstore/client-go/pkg/domain/scanjob"
	"github.com/gridstore/client-go/pkg/gridstoretest"
)

func submit(t *testing.T, cluster *gridstoretest.Cluster, body string) uint64 {
	t.Helper()
	resp, err := http.Post(cluster.URL()+"/v1/scan-jobs", "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		JobID uint64 `json:"job_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed.JobID
}

func status(t *testing.T, cluster *gridstoretest.Cluster, id uint64) (scanjob.RawJobStatus, int) {
	t.Helper()
	resp, err := http.Get(cluster.URL() + "/v1/scan-jobs/" + scanjob.Handle(id).String())
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw scanjob.RawJobStatus
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	}
	return raw, resp.StatusCode
}

const validSubmit = `{"namespace":"test","set":"demo","udf":{"module":"mymodule","function":"myfunc","args":[]}}`

func TestSubmitAssignsSequentialIDs(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()

	first := submit(t, cluster, validSubmit)
	second := submit(t, cluster, validSubmit)
	assert.Equal(t, first+1, second)
	assert.Len(t, cluster.SubmittedJobs(), 2)
}

func TestSubmitRejectsIncompleteBody(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()

	resp, err := http.Post(cluster.URL()+"/v1/scan-jobs", "application/json",
		bytes.NewReader([]byte(`{"namespace":"test"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, cluster.SubmittedJobs())
}

func TestJobProgressesAcrossPolls(t *testing.T) {
	cluster := gridstoretest.New(gridstoretest.WithProgressStep(50), gridstoretest.WithRecordsPerStep(500))
	defer cluster.Close()

	id := submit(t, cluster, validSubmit)

	raw, code := status(t, cluster, id)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, raw.ProgressPct)
	assert.Equal(t, scanjob.StatusInProgress.Code(), raw.StatusCode)

	raw, _ = status(t, cluster, id)
	assert.Equal(t, 50, raw.ProgressPct)
	assert.Equal(t, int64(500), raw.RecordsScanned)

	raw, _ = status(t, cluster, id)
	assert.Equal(t, 100, raw.ProgressPct)
	assert.Equal(t, scanjob.StatusSucceeded.Code(), raw.StatusCode)

	// Terminal jobs stay put.
	raw, _ = status(t, cluster, id)
	assert.Equal(t, 100, raw.ProgressPct)
	assert.Equal(t, scanjob.StatusSucceeded.Code(), raw.StatusCode)
}

func TestZeroStepFreezesJobs(t *testing.T) {
	cluster := gridstoretest.New(gridstoretest.WithProgressStep(0))
	defer cluster.Close()

	id := submit(t, cluster, validSubmit)
	for i := 0; i < 3; i++ {
		raw, code := status(t, cluster, id)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 0, raw.ProgressPct)
		assert.Equal(t, scanjob.StatusInProgress.Code(), raw.StatusCode)
	}
}

func TestUnknownJobIs404(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()

	_, code := status(t, cluster, 12345)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCompleteAndFailJob(t *testing.T) {
	cluster := gridstoretest.New(gridstoretest.WithProgressStep(0))
	defer cluster.Close()

	done := submit(t, cluster, validSubmit)
	cluster.CompleteJob(done)
	raw, _ := status(t, cluster, done)
	assert.Equal(t, 100, raw.ProgressPct)
	assert.Equal(t, scanjob.StatusSucceeded.Code(), raw.StatusCode)

	failed := submit(t, cluster, validSubmit)
	cluster.FailJob(failed)
	raw, _ = status(t, cluster, failed)
	assert.Equal(t, scanjob.StatusFailed.Code(), raw.StatusCode)
}

func TestFailNextSubmitAffectsOneRequest(t *testing.T) {
	cluster := gridstoretest.New()
	defer cluster.Close()

	cluster.FailNextSubmit(http.StatusServiceUnavailable, "UNAVAILABLE", "node restarting")

	resp, err := http.Post(cluster.URL()+"/v1/scan-jobs", "application/json",
		bytes.NewReader([]byte(validSubmit)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	id := submit(t, cluster, validSubmit)
	assert.Positive(t, id)
}
