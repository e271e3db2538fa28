// Package probe implements embedded probe: an in-process host for a single
// natural-language model.
//
// Only one probe may be running per process. Stopping a probe while Ask is in
// flight is a precondition violation: Stop waits for the call to return, but
// callers must not rely on that.
package probe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/tdakkota/timeprobe/model"
)

var (
	// ErrAlreadyRunning is returned by Start if a probe is already running.
	ErrAlreadyRunning = errors.New("probe is already running")
	// ErrNotRunning is returned by Stop and Ask of a stopped probe.
	ErrNotRunning = errors.New("probe is not running")
	// ErrUnknownModel is returned by Ask for model which is not loaded.
	ErrUnknownModel = errors.New("unknown model")
)

// DefaultMaxLength is the default query length limit, in runes.
const DefaultMaxLength = 512

// active is the running probe of this process.
var (
	activeMu sync.Mutex
	active   *Probe
	activeID string
)

// Probe is a lifecycle-guarded model host.
type Probe struct {
	mu    sync.RWMutex
	model model.Model

	logger *zap.Logger
	// immutable
	maxLength int
}

// Option configures Probe.
type Option func(p *Probe)

// WithLogger sets probe logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Probe) {
		p.logger = logger
	}
}

// WithMaxLength sets maximum query length in runes.
func WithMaxLength(n int) Option {
	return func(p *Probe) {
		p.maxLength = n
	}
}

// New creates new stopped probe.
func New(opts ...Option) *Probe {
	p := &Probe{
		logger:    zap.NewNop(),
		maxLength: DefaultMaxLength,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Default is the probe used by package-level Start and Stop.
// It may be replaced while stopped.
var Default = New()

// Start starts Default probe with given model.
func Start(m model.Model) error {
	return Default.Start(m)
}

// Stop stops Default probe.
func Stop() error {
	return Default.Stop()
}

// Start loads and activates given model.
func (p *Probe) Start(m model.Model) error {
	if m == nil {
		return xerrors.New("start probe: nil model")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return xerrors.Errorf("start %q: %w", m.ID(), ErrAlreadyRunning)
	}

	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		return xerrors.Errorf("start %q: probe of %q: %w", m.ID(), activeID, ErrAlreadyRunning)
	}
	active = p
	activeID = m.ID()

	p.model = m
	p.logger.Info("Probe started", zap.String("model", m.ID()))
	return nil
}

// Stop deactivates running model.
func (p *Probe) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil {
		return ErrNotRunning
	}

	activeMu.Lock()
	if active == p {
		active = nil
		activeID = ""
	}
	activeMu.Unlock()

	p.logger.Info("Probe stopped", zap.String("model", p.model.ID()))
	p.model = nil
	return nil
}

// Running reports whether probe is running.
func (p *Probe) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model != nil
}

// ModelID returns identifier of loaded model or empty string if probe is
// stopped.
func (p *Probe) ModelID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model == nil {
		return ""
	}
	return p.model.ID()
}

// Ask submits text to model with given ID.
//
// Returned error is ErrNotRunning or ErrUnknownModel if probe cannot serve the
// request, context error if ctx is done, or *model.RejectedError if request
// was not resolved.
func (p *Probe) Ask(ctx context.Context, modelID, text string) (a model.Answer, err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.model == nil {
		return model.Answer{}, ErrNotRunning
	}
	if p.model.ID() != modelID {
		return model.Answer{}, xerrors.Errorf("ask %q: %w", modelID, ErrUnknownModel)
	}

	defer func() {
		p.logger.With(
			zap.String("model", modelID),
			zap.String("text", text),
			zap.String("intent", a.Intent),
			zap.Error(err),
		).Debug("Asked model")
	}()

	if err := p.validate(text); err != nil {
		return model.Answer{}, err
	}

	a, err = p.model.Query(ctx, model.Query{Text: text})
	if err != nil {
		if _, ok := model.IsRejected(err); ok {
			return model.Answer{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Answer{}, xerrors.Errorf("ask %q: %w", modelID, ctxErr)
		}

		p.logger.Warn("Model failed", zap.String("model", modelID), zap.Error(err))
		return model.Answer{}, model.Rejected("model error: " + err.Error())
	}
	return a, nil
}

func (p *Probe) validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return model.Rejected("empty request")
	}
	if p.maxLength > 0 && utf8.RuneCountInString(text) > p.maxLength {
		return model.Rejected("request too long")
	}
	for _, r := range text {
		if !supported(r) {
			return model.Rejected("unsupported charset")
		}
	}
	return nil
}

// supported reports whether r belongs to supported charset: printable ASCII
// and whitespace.
func supported(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return true
	}
	return r >= 0x20 && r < 0x7f
}
