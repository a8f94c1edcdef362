// Package pipeline orchestrates one gated sync attempt: mount, probe,
// gate, cleanup, replicate, and finalize. It owns the outcome accumulator
// and guarantees that exactly one result record is emitted on every exit
// path.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/fitoori/squirt/internal/cleanup"
	"github.com/fitoori/squirt/internal/config"
	"github.com/fitoori/squirt/internal/executor"
	"github.com/fitoori/squirt/internal/gate"
	"github.com/fitoori/squirt/internal/models"
	"github.com/fitoori/squirt/internal/mount"
	"github.com/fitoori/squirt/internal/probe"
	"github.com/fitoori/squirt/internal/profile"
	"github.com/fitoori/squirt/internal/result"
	"github.com/fitoori/squirt/internal/wireless"
)

// Step names the pipeline states for fault annotation.
type Step string

const (
	StepInit      Step = "init"
	StepMounting  Step = "mounting"
	StepProbing   Step = "probing"
	StepGating    Step = "gating"
	StepCleanup   Step = "cleanup"
	StepRunning   Step = "running"
	StepFinalized Step = "finalized"
)

// Pipeline runs one invocation end to end. Not reusable; build a fresh
// one per run.
type Pipeline struct {
	cfg     config.Config
	emitter *result.Emitter
	wifi    *wireless.Reader
	prober  *probe.Prober
	mounts  *mount.Preparer

	dryRun        bool
	handleSignals bool

	step    Step
	outcome models.SyncOutcome
	reading models.ConnectivityReading

	// Seams for tests; production wiring in New.
	lookPath    func(string) (string, error)
	loadProfile func(dir, name string) (profile.Profile, error)
	sweep       func([]profile.Root) cleanup.Stats
	runSync     func(ctx context.Context, bin string, args []string, timeout time.Duration) executor.Result
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDryRun stops after the gate decision.
func WithDryRun(on bool) Option {
	return func(p *Pipeline) { p.dryRun = on }
}

// WithoutSignalHandling disables the interrupt watcher (tests).
func WithoutSignalHandling() Option {
	return func(p *Pipeline) { p.handleSignals = false }
}

// New builds a pipeline for cfg.
func New(cfg config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:           cfg,
		emitter:       result.NewEmitter(cfg.LogPath, cfg.LogFormat),
		wifi:          wireless.New(),
		prober:        probe.New(),
		mounts:        mount.New(),
		handleSignals: true,
		step:          StepInit,
		outcome:       models.NewOutcome(),
		reading:       models.UnknownReading(),
		lookPath:      exec.LookPath,
		loadProfile:   profile.Load,
		sweep:         cleanup.Sweep,
		runSync:       executor.Run,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline and returns the process exit code. A record
// has always been emitted by the time it returns.
func (p *Pipeline) Run(ctx context.Context) (exitCode int) {
	lock := flock.New(p.cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		if err != nil {
			log.Printf("lock %s: %v", p.cfg.LockPath, err)
		} else {
			log.Printf("lock %s held by another run", p.cfg.LockPath)
		}
		p.outcome.Advance(models.StatusSkip, models.ReasonLockBusy, models.ExitSkipped)
		p.emit()
		return models.ExitSkipped
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Printf("unlock %s: %v", p.cfg.LockPath, err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p.handleSignals {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			sig, ok := <-sigCh
			if !ok {
				return
			}
			log.Printf("received %s, finalizing", sig)
			cancel() // tears down any child process group
			p.interrupt()
			_ = lock.Unlock()
			os.Exit(models.ExitInterrupted)
		}()
	}

	// The guaranteed finalizer: converts panics into a FAIL verdict,
	// backfills a verdict if a step slipped out without one, and emits
	// the single record.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fault at %s: %s", p.step, truncate(fmt.Sprint(r), 200))
			p.fail(models.ReasonFault, models.ExitInternal)
			exitCode = models.ExitInternal
		}
		if !p.outcome.Terminal() && !p.emitter.Emitted() {
			p.fail(models.ReasonEarlyExit, models.ExitEarly)
			exitCode = models.ExitEarly
		}
		p.emit()
		p.step = StepFinalized
	}()

	// Required external tooling, checked before any probing.
	bin, err := p.lookPath(p.cfg.UnisonPath)
	if err != nil {
		log.Printf("replication tool %s not found", p.cfg.UnisonPath)
		p.fail(models.ReasonNoUnison, models.ExitMissingDep)
		return models.ExitMissingDep
	}

	p.step = StepMounting
	p.mounts.Prepare(ctx, p.cfg.Mount, p.cfg.MountTimeout())

	p.step = StepProbing
	p.reading = p.prober.Probe(ctx, p.cfg.ProbeTarget, p.cfg.ProbeCount, p.cfg.ProbeTimeout())
	p.reading.RSSI = p.wifi.RSSI(p.cfg.Interface)
	link := p.wifi.State(p.cfg.Interface)
	log.Printf("probe %s: diag=%s loss=%d%% latency=%dms rssi=%d link=%s",
		p.cfg.ProbeTarget, p.reading.Diagnostic, p.reading.LossPercent,
		p.reading.LatencyMs, p.reading.RSSI, link)

	p.step = StepGating
	decision := gate.Decide(p.reading, link, p.cfg.Thresholds)
	if decision.Status == models.StatusSkip {
		p.outcome.Advance(models.StatusSkip, decision.Reason, models.ExitSkipped)
		return models.ExitSkipped
	}
	p.outcome.Advance(models.StatusRun, decision.Reason, models.ExitOK)
	if p.dryRun {
		log.Printf("dry-run: gate says %s (%s), stopping before sync", decision.Status, decision.Reason)
		p.emit()
		return models.ExitOK
	}

	p.step = StepCleanup
	prof, err := p.loadProfile(p.cfg.UnisonDir, p.cfg.Profile)
	if err != nil {
		log.Printf("profile %s: %v, skipping cleanup", p.cfg.Profile, err)
	} else {
		stats := p.sweep(prof.Roots)
		log.Printf("cleanup: removed %d sidecar file(s) across %d root(s)",
			stats.Total, len(stats.PerRoot))
	}

	p.step = StepRunning
	res := p.runSync(ctx, bin, executor.UnisonArgs(p.cfg.Profile), p.cfg.SyncTimeout())
	status, reason, exit := res.Outcome()
	p.outcome.Advance(status, reason, exit)
	return exit
}

// interrupt records the signal verdict and emits the record. Split out of
// the watcher goroutine so the finalization path is testable in-process.
func (p *Pipeline) interrupt() {
	p.fail(models.ReasonInterrupted, models.ExitInterrupted)
	p.emit()
}

// fail advances to FAIL, honoring forward-only transitions: a verdict
// that already exists is never overwritten.
func (p *Pipeline) fail(reason string, exitCode int) {
	p.outcome.Advance(models.StatusFail, reason, exitCode)
}

func (p *Pipeline) emit() {
	p.emitter.Emit(models.ResultRecord{
		Timestamp: time.Now().UTC(),
		Status:    p.outcome.Status,
		Reason:    p.outcome.Reason,
		RSSI:      p.reading.RSSI,
		Loss:      p.reading.LossPercent,
		Latency:   p.reading.LatencyMs,
		Exit:      p.outcome.ExitCode,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
