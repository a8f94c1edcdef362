package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeForwardOnly(t *testing.T) {
	o := NewOutcome()
	assert.Equal(t, StatusPending, o.Status)
	assert.False(t, o.Terminal())

	require.True(t, o.Advance(StatusRun, ReasonEligible, 0))
	assert.False(t, o.Terminal())

	// Regression to SKIP is ignored.
	assert.False(t, o.Advance(StatusSkip, ReasonWeak, ExitSkipped))
	assert.Equal(t, StatusRun, o.Status)
	assert.Equal(t, ReasonEligible, o.Reason)

	require.True(t, o.Advance(StatusOK, ReasonSync, ExitOK))
	assert.True(t, o.Terminal())

	// Terminal verdicts are immutable.
	assert.False(t, o.Advance(StatusFail, ReasonFault, ExitInternal))
	assert.Equal(t, StatusOK, o.Status)
}

func TestOutcomePendingToSkip(t *testing.T) {
	o := NewOutcome()
	require.True(t, o.Advance(StatusSkip, ReasonLoss, ExitSkipped))
	assert.True(t, o.Terminal())
	assert.False(t, o.Advance(StatusRun, ReasonEligible, 0))
}

func TestOutcomePendingToFail(t *testing.T) {
	o := NewOutcome()
	require.True(t, o.Advance(StatusFail, ReasonNoUnison, ExitMissingDep))
	assert.Equal(t, ExitMissingDep, o.ExitCode)
}

func TestRecordLine(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	rec := ResultRecord{
		Timestamp: ts,
		Status:    StatusSkip,
		Reason:    ReasonWeak,
		RSSI:      -80,
		Loss:      0,
		Latency:   10,
		Exit:      ExitSkipped,
	}
	assert.Equal(t,
		"2026-01-02T15:04:05Z Result: status=SKIP reason=weak RSSI=-80 loss=0 latency=10 exit=1",
		rec.Line())
}

func TestRecordJSONKeys(t *testing.T) {
	rec := ResultRecord{
		Timestamp: time.Now().UTC(),
		Status:    StatusOK,
		Reason:    ReasonSync,
		RSSI:      -58,
		Loss:      0,
		Latency:   12,
		Exit:      0,
	}
	line, err := rec.JSONLine()
	require.NoError(t, err)

	// The dashboard parser looks for these exact keys.
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	for _, key := range []string{"ts", "status", "reason", "rssi", "loss", "lat", "exit"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "OK", m["status"])
	assert.EqualValues(t, -58, m["rssi"])
	assert.EqualValues(t, 12, m["lat"])
}
