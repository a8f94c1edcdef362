package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fitoori/squirt/internal/models"
)

func TestOutcomeMapping(t *testing.T) {
	cases := []struct {
		name       string
		res        Result
		wantStatus models.Status
		wantReason string
		wantExit   int
	}{
		{"clean run", Result{ExitCode: 0}, models.StatusOK, models.ReasonSync, models.ExitOK},
		{"tool failure", Result{ExitCode: 2}, models.StatusFail, models.ReasonUnison, models.ExitSyncFailed},
		{"spawn failure", Result{ExitCode: -1}, models.StatusFail, models.ReasonUnison, models.ExitSyncFailed},
		{"timeout", Result{TimedOut: true, ExitCode: -1}, models.StatusFail, models.ReasonTimeout, models.ExitSyncTimeout},
		{"timeout wins over exit code", Result{TimedOut: true, ExitCode: 0}, models.StatusFail, models.ReasonTimeout, models.ExitSyncTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, reason, exit := tc.res.Outcome()
			assert.Equal(t, tc.wantStatus, st)
			assert.Equal(t, tc.wantReason, reason)
			assert.Equal(t, tc.wantExit, exit)
		})
	}
}

func TestRunSuccess(t *testing.T) {
	res := Run(context.Background(), "sh", []string{"-c", "exit 0"}, 5*time.Second)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err)
}

func TestRunNonzeroExit(t *testing.T) {
	res := Run(context.Background(), "sh", []string{"-c", "exit 7"}, 5*time.Second)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 7, res.ExitCode)
	assert.Error(t, res.Err)
}

func TestRunTimeout(t *testing.T) {
	started := time.Now()
	res := Run(context.Background(), "sh", []string{"-c", "sleep 30"}, 200*time.Millisecond)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestRunMissingBinary(t *testing.T) {
	res := Run(context.Background(), "no-such-replication-tool", nil, time.Second)
	assert.False(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
	assert.Error(t, res.Err)
}

func TestUnisonArgs(t *testing.T) {
	assert.Equal(t, []string{"backup", "-batch", "-auto", "-terse"}, UnisonArgs("backup"))
}
