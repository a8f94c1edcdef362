// Package gate holds the pure decision function between probing and the
// replication run.
package gate

import (
	"math"

	"github.com/fitoori/squirt/internal/config"
	"github.com/fitoori/squirt/internal/models"
)

// Decision is the gate's verdict: either RUN with reason eligible, or
// SKIP with the first matching reason.
type Decision struct {
	Status models.Status
	Reason string
}

// Decide evaluates the reading against the link state and thresholds.
// First match wins; diagnostic-derived reasons always precede
// threshold-derived ones. Unknown telemetry compares as worst-case, so a
// probe that could not measure something can never authorize a run.
func Decide(r models.ConnectivityReading, link models.LinkState, t config.Thresholds) Decision {
	if r.Diagnostic != models.DiagOK {
		return Decision{Status: models.StatusSkip, Reason: DiagnosticReason(r.Diagnostic)}
	}
	if link == models.LinkDisconnected {
		return Decision{Status: models.StatusSkip, Reason: models.ReasonWifiOff}
	}

	latency := r.LatencyMs
	if latency == models.LatencyUnknown {
		latency = math.MaxInt
	}

	switch {
	case r.RSSI < t.MinRSSIDbm:
		return Decision{Status: models.StatusSkip, Reason: models.ReasonWeak}
	case r.LossPercent > t.MaxLossPercent:
		return Decision{Status: models.StatusSkip, Reason: models.ReasonLoss}
	case latency > t.MaxLatencyMs:
		return Decision{Status: models.StatusSkip, Reason: models.ReasonLatency}
	}
	return Decision{Status: models.StatusRun, Reason: models.ReasonEligible}
}

// DiagnosticReason maps a probe diagnostic 1:1 onto its skip reason.
func DiagnosticReason(d models.Diagnostic) string {
	switch d {
	case models.DiagDNS:
		return models.ReasonDNSFailure
	case models.DiagNetUnreachable:
		return models.ReasonNetUnreachable
	case models.DiagTimeout:
		return models.ReasonPingTimeout
	case models.DiagNoReply:
		return models.ReasonPingNoReply
	case models.DiagPermission:
		return models.ReasonPingPermission
	}
	return string(d)
}
