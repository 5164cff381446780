// Package ledger owns the loaded sales ledger for a session.
//
// A Handle loads its source lazily on first use and keeps the snapshot
// until Reload replaces it. Snapshots are immutable, so callers may share
// the returned *models.Ledger freely.
package ledger

import (
	"context"
	"sync"

	"salesledger/internal/models"
	"salesledger/internal/parsers"
	"salesledger/pkg/errors"
	"salesledger/pkg/logger"
)

// Loader produces a ledger from its source
type Loader interface {
	Load(ctx context.Context) (*models.Ledger, error)
	Source() string
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc struct {
	Name string
	Fn   func(ctx context.Context) (*models.Ledger, error)
}

// Load calls the wrapped function
func (f LoaderFunc) Load(ctx context.Context) (*models.Ledger, error) {
	return f.Fn(ctx)
}

// Source returns the loader name
func (f LoaderFunc) Source() string {
	return f.Name
}

// FileLoader loads a ledger from a CSV file
type FileLoader struct {
	Path   string
	Parser *parsers.LedgerParser
}

// NewFileLoader creates a loader for path using the given column layout
func NewFileLoader(path string, config *parsers.LedgerParserConfig) (*FileLoader, error) {
	parser, err := parsers.NewLedgerParser(config)
	if err != nil {
		return nil, err
	}
	return &FileLoader{Path: path, Parser: parser}, nil
}

// Load parses the file
func (l *FileLoader) Load(ctx context.Context) (*models.Ledger, error) {
	ledger, _, err := l.Parser.ParseLedger(ctx, l.Path)
	return ledger, err
}

// Source returns the file path
func (l *FileLoader) Source() string {
	return l.Path
}

// Handle caches the current ledger snapshot. A LoadError leaves the
// handle without a usable ledger and the failure is reported on every Get
// until a Reload succeeds.
type Handle struct {
	loader Loader
	logger logger.Logger

	mu      sync.RWMutex
	current *models.Ledger
	lastErr error
	loaded  bool
}

// NewHandle creates a handle that loads lazily from loader
func NewHandle(loader Loader) *Handle {
	return &Handle{
		loader: loader,
		logger: logger.WithComponent("ledger").WithField("source", loader.Source()),
	}
}

// Get returns the current ledger, loading it on first use. A load that
// fails without a LoadError (a cancelled context) is retried by the next Get.
func (h *Handle) Get(ctx context.Context) (*models.Ledger, error) {
	h.mu.RLock()
	if h.loaded {
		current, err := h.current, h.lastErr
		h.mu.RUnlock()
		return current, err
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded {
		return h.current, h.lastErr
	}
	if err := h.loadLocked(ctx); err != nil {
		return nil, err
	}
	return h.current, nil
}

// Reload loads a fresh snapshot. On success it replaces the current one. A
// LoadError leaves the handle without a ledger until the next successful
// reload; any other failure keeps the current state.
func (h *Handle) Reload(ctx context.Context) (*models.Ledger, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.loadLocked(ctx); err != nil {
		return nil, err
	}
	return h.current, nil
}

func (h *Handle) loadLocked(ctx context.Context) error {
	ledger, err := h.loader.Load(ctx)
	if err != nil {
		if !errors.IsLoadError(err) {
			h.logger.WithError(err).Warn("Ledger load interrupted")
			return err
		}
		h.logger.WithError(err).Error("Ledger load failed")
		h.loaded = true
		h.current, h.lastErr = nil, err
		return err
	}

	h.logger.WithField("records", ledger.Len()).Debug("Ledger snapshot installed")
	h.loaded = true
	h.current, h.lastErr = ledger, nil
	return nil
}
