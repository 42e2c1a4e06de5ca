package scanjob

import (
	"strconv"

	"github.com/gridstore/client-go/pkg/clienterr"
)

// Handle is the cluster-assigned identifier of a submitted background job.
// It is a plain value: all job behavior lives on the cluster, and the
// handle stays valid for the job's cluster-side lifetime regardless of the
// submitting process.
type Handle uint64

// String returns the decimal form of the handle.
func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

// ParseHandle parses a decimal job handle.
func ParseHandle(s string) (Handle, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, clienterr.Parameterf("invalid job handle %q", s)
	}
	return Handle(n), nil
}

// Status is the cluster-reported state of a background job. Transitions
// are cluster-owned and monotonic: Undef → InProgress → Failed or
// Succeeded; terminal states do not revert.
type Status int

const (
	StatusUndef Status = iota
	StatusInProgress
	StatusFailed
	StatusSucceeded
)

// statusCodeBase is where the scan job status block starts in the wire
// protocol's shared status code space. The offset is an external contract;
// raw codes on the wire are enum ordinal + statusCodeBase.
const statusCodeBase = 4

// Code returns the raw wire status code.
func (s Status) Code() int {
	return int(s) + statusCodeBase
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusFailed || s == StatusSucceeded
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusUndef:
		return "UNDEF"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusFailed:
		return "FAILED"
	case StatusSucceeded:
		return "SUCCEEDED"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
	}
}

// StatusFromCode maps a raw wire status code back onto the enumeration.
func StatusFromCode(code int) (Status, error) {
	s := Status(code - statusCodeBase)
	switch s {
	case StatusUndef, StatusInProgress, StatusFailed, StatusSucceeded:
		return s, nil
	default:
		return StatusUndef, clienterr.Transport(nil, "unknown job status code "+strconv.Itoa(code))
	}
}

// StatusRecord is a snapshot of a background job's progress. Produced
// fresh on every status query, never cached.
type StatusRecord struct {
	ProgressPct    int    `json:"progress_pct"`
	RecordsScanned int64  `json:"records_scanned"`
	Status         Status `json:"status"`
}

// RawJobStatus is the untranslated triple returned by the cluster's
// "query job status" primitive. StatusCode is the raw wire code.
type RawJobStatus struct {
	ProgressPct    int   `json:"progress_pct"`
	RecordsScanned int64 `json:"records_scanned"`
	StatusCode     int   `json:"status"`
}
