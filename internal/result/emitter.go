// Package result owns the append-only result log: exactly one record per
// invocation, durably written no matter how the run ends.
package result

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fitoori/squirt/internal/config"
	"github.com/fitoori/squirt/internal/models"
)

// Emitter appends result records. The first Emit wins; every later call
// is a no-op, which lets the finalizer fire unconditionally.
type Emitter struct {
	mu       sync.Mutex
	emitted  bool
	path     string
	fallback string
	format   string
}

// NewEmitter writes to path in the given encoding (config.FormatText or
// config.FormatJSON), falling back to a file of the same name in the temp
// directory when path is not writable.
func NewEmitter(path, format string) *Emitter {
	return &Emitter{
		path:     path,
		fallback: filepath.Join(os.TempDir(), filepath.Base(path)),
		format:   format,
	}
}

// Emit appends rec as one line. Reports whether this call performed the
// write; false means a record was already emitted (or nothing could be
// written anywhere, which is logged).
func (e *Emitter) Emit(rec models.ResultRecord) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.emitted {
		return false
	}
	// Claim the slot before touching the filesystem so a second caller
	// can never produce a duplicate line.
	e.emitted = true

	line, err := e.encode(rec)
	if err != nil {
		log.Printf("result: %v", err)
		return false
	}
	if err := appendLine(e.path, line); err != nil {
		log.Printf("result: %s: %v, using fallback %s", e.path, err, e.fallback)
		if err := appendLine(e.fallback, line); err != nil {
			log.Printf("result: fallback %s: %v", e.fallback, err)
			return false
		}
	}
	return true
}

// Emitted reports whether a record has been written (or claimed).
func (e *Emitter) Emitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emitted
}

func (e *Emitter) encode(rec models.ResultRecord) (string, error) {
	if e.format == config.FormatJSON {
		return rec.JSONLine()
	}
	return rec.Line(), nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result log: %w", err)
	}
	_, werr := f.WriteString(line + "\n")
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("append result: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close result log: %w", cerr)
	}
	return nil
}
