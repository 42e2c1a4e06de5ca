package scanjob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstore/client-go/pkg/clienterr"
)

func TestStatus_WireCodes(t *testing.T) {
	// The scan job status block starts at 4 on the wire. The offset is
	// an external contract; these exact values must not change.
	assert.Equal(t, 4, StatusUndef.Code())
	assert.Equal(t, 5, StatusInProgress.Code())
	assert.Equal(t, 6, StatusFailed.Code())
	assert.Equal(t, 7, StatusSucceeded.Code())
}

func TestStatusFromCode_RoundTrip(t *testing.T) {
	for _, s := range []Status{StatusUndef, StatusInProgress, StatusFailed, StatusSucceeded} {
		got, err := StatusFromCode(s.Code())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestStatusFromCode_Unknown(t *testing.T) {
	for _, code := range []int{0, 3, 8, -1, 100} {
		_, err := StatusFromCode(code)
		assert.True(t, clienterr.IsKind(err, clienterr.KindTransport), "code %d", code)
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusUndef.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "UNDEF", StatusUndef.String())
	assert.Equal(t, "IN_PROGRESS", StatusInProgress.String())
	assert.Equal(t, "FAILED", StatusFailed.String())
	assert.Equal(t, "SUCCEEDED", StatusSucceeded.String())
}

func TestHandle_StringRoundTrip(t *testing.T) {
	h := Handle(18446744073709551615)
	assert.Equal(t, "18446744073709551615", h.String())

	parsed, err := ParseHandle(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ParseHandle("not-a-job")
	assert.True(t, clienterr.IsKind(err, clienterr.KindParameter))
}
