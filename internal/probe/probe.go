// Package probe measures live connectivity with direct network primitives
// (a DNS resolve plus timed TCP connects) so failures arrive as typed
// errors instead of tool output to be scraped.
package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/fitoori/squirt/internal/models"
)

// defaultPort is dialed when the target carries no explicit port. 443 is
// reachable for the hosts this gate probes.
const defaultPort = "443"

// Prober runs bounded connectivity probes.
type Prober struct {
	dialer   net.Dialer
	resolver *net.Resolver
}

// New returns a Prober using the system resolver.
func New() *Prober {
	return &Prober{resolver: net.DefaultResolver}
}

// Probe resolves target once and dials it attempts times, each attempt
// bounded by perAttempt. The whole call is additionally wrapped in its own
// hard deadline and returns within it regardless of target behavior.
// RSSI is not the prober's concern; the returned reading carries the
// unknown sentinel for it.
func (p *Prober) Probe(ctx context.Context, target string, attempts int, perAttempt time.Duration) models.ConnectivityReading {
	if attempts <= 0 {
		attempts = 1
	}
	if perAttempt <= 0 {
		perAttempt = 2 * time.Second
	}

	reading := models.UnknownReading()

	// Hard outer bound: resolve + all attempts + slack.
	budget := time.Duration(attempts+2) * perAttempt
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	host, port := splitTarget(target)

	rctx, rcancel := context.WithTimeout(ctx, perAttempt)
	addrs, err := p.resolver.LookupHost(rctx, host)
	rcancel()
	if err != nil || len(addrs) == 0 {
		reading.Diagnostic = classifyResolve(err)
		return reading
	}
	addr := net.JoinHostPort(addrs[0], port)

	var (
		replies int
		total   time.Duration
		errs    []error
	)
	for i := 0; i < attempts; i++ {
		actx, acancel := context.WithTimeout(ctx, perAttempt)
		started := time.Now()
		conn, err := p.dialer.DialContext(actx, "tcp", addr)
		acancel()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		replies++
		total += time.Since(started)
		_ = conn.Close()
	}

	reading.LossPercent = (attempts - replies) * 100 / attempts
	if replies > 0 {
		reading.LatencyMs = int(total.Milliseconds()) / replies
	}
	reading.Diagnostic = Classify(replies, errs)
	return reading
}

// Classify maps dial outcomes onto the probe failure taxonomy. Any reply
// at all means the path works and the diagnostic stays ok; otherwise the
// collected errors are inspected in priority order.
func Classify(replies int, errs []error) models.Diagnostic {
	if replies > 0 {
		return models.DiagOK
	}
	for _, err := range errs {
		if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
			return models.DiagNetUnreachable
		}
	}
	for _, err := range errs {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			return models.DiagPermission
		}
	}
	for _, err := range errs {
		if isTimeout(err) {
			return models.DiagTimeout
		}
	}
	return models.DiagNoReply
}

func classifyResolve(err error) models.Diagnostic {
	if err == nil {
		// Lookup succeeded but produced no addresses.
		return models.DiagDNS
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return models.DiagTimeout
		}
		return models.DiagDNS
	}
	if isTimeout(err) {
		return models.DiagTimeout
	}
	return models.DiagDNS
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func splitTarget(target string) (host, port string) {
	if h, p, err := net.SplitHostPort(target); err == nil && p != "" {
		return h, p
	}
	return strings.TrimSpace(target), defaultPort
}
