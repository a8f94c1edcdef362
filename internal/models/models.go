package models

// Diagnostic classifies the failure mode of a connectivity probe.
type Diagnostic string

const (
	DiagOK             Diagnostic = "ok"
	DiagDNS            Diagnostic = "dns"
	DiagNetUnreachable Diagnostic = "net-unreachable"
	DiagTimeout        Diagnostic = "timeout"
	DiagNoReply        Diagnostic = "no-reply"
	DiagPermission     Diagnostic = "permission"
)

// Sentinels for telemetry the probe could not obtain. Both compare as
// worst-case in the gate, so missing data can never authorize a run.
const (
	RSSIUnknown    = -999
	LatencyUnknown = -1
)

// ConnectivityReading is one probe's view of the network. Created fresh
// per invocation and discarded after the gate decision.
type ConnectivityReading struct {
	RSSI        int
	LossPercent int
	LatencyMs   int
	Diagnostic  Diagnostic
}

// UnknownReading is the reading used when no probe ran at all.
func UnknownReading() ConnectivityReading {
	return ConnectivityReading{
		RSSI:        RSSIUnknown,
		LossPercent: 100,
		LatencyMs:   LatencyUnknown,
		Diagnostic:  DiagOK,
	}
}

// LinkState reports whether the wireless interface is associated.
type LinkState string

const (
	LinkConnected    LinkState = "connected"
	LinkDisconnected LinkState = "disconnected"
	LinkUnknown      LinkState = "unknown"
)

// Status is the lifecycle state of one sync attempt.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSkip    Status = "SKIP"
	StatusRun     Status = "RUN"
	StatusOK      Status = "OK"
	StatusFail    Status = "FAIL"
)

// Reason codes written to the result log. The dashboard displays these
// verbatim, so they stay short and stable.
const (
	ReasonDNSFailure     = "dns-failure"
	ReasonNetUnreachable = "net-unreachable"
	ReasonPingTimeout    = "ping-timeout"
	ReasonPingNoReply    = "ping-no-reply"
	ReasonPingPermission = "ping-permission"
	ReasonWifiOff        = "wifi-off"
	ReasonWeak           = "weak"
	ReasonLoss           = "loss"
	ReasonLatency        = "latency"
	ReasonEligible       = "eligible"
	ReasonSync           = "sync"
	ReasonTimeout        = "timeout"
	ReasonUnison         = "unison"
	ReasonInterrupted    = "interrupted"
	ReasonLockBusy       = "lock-busy"
	ReasonNoUnison       = "no-unison"
	ReasonFault          = "fault"
	ReasonEarlyExit      = "early-exit"
)

// Process exit codes, part of the scheduler contract.
const (
	ExitOK          = 0  // sync completed
	ExitSkipped     = 1  // gate said no (or another run holds the lock)
	ExitSyncFailed  = 2  // replication tool reported failure
	ExitSyncTimeout = 3  // replication tool killed by the timeout
	ExitMissingDep  = 90 // required external tool absent
	ExitEarly       = 97 // finalizer fired with no verdict recorded
	ExitInternal    = 98 // unhandled internal fault
	ExitInterrupted = 99 // terminated by signal
)

// SyncOutcome is the accumulator threaded through the pipeline. It only
// ever moves forward; a disallowed transition is ignored so a late step
// can never overwrite an earlier verdict.
type SyncOutcome struct {
	Status   Status
	Reason   string
	ExitCode int
}

// NewOutcome returns the initial PENDING outcome.
func NewOutcome() SyncOutcome {
	return SyncOutcome{Status: StatusPending}
}

// Advance moves the outcome to status with the given reason and exit code.
// It reports whether the transition was legal and applied.
func (o *SyncOutcome) Advance(status Status, reason string, exitCode int) bool {
	if !transitionAllowed(o.Status, status) {
		return false
	}
	o.Status = status
	o.Reason = reason
	o.ExitCode = exitCode
	return true
}

// Terminal reports whether the outcome has reached a final verdict.
func (o SyncOutcome) Terminal() bool {
	switch o.Status {
	case StatusSkip, StatusOK, StatusFail:
		return true
	}
	return false
}

func transitionAllowed(from, to Status) bool {
	switch from {
	case StatusPending:
		// FAIL from PENDING covers faults before the gate decided anything.
		return to == StatusSkip || to == StatusRun || to == StatusFail
	case StatusRun:
		return to == StatusOK || to == StatusFail
	}
	return false
}
