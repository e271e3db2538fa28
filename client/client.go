// Package client implements test client for embedded probe.
package client

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/tdakkota/timeprobe/model"
	"github.com/tdakkota/timeprobe/probe"
)

var (
	// ErrWorkerNotRunning is returned by Open and Ask if probe is stopped.
	ErrWorkerNotRunning = errors.New("probe is not running")
	// ErrUnknownModel is returned by Open if probe serves another model.
	ErrUnknownModel = probe.ErrUnknownModel
	// ErrNotOpen is returned by Ask of a closed client.
	ErrNotOpen = errors.New("client is not open")
	// ErrAlreadyOpen is returned by Open of an open client.
	ErrAlreadyOpen = errors.New("client is already open")
)

// Client is a session bound to a single model of embedded probe.
// Client is not safe for concurrent use.
type Client struct {
	probe  *probe.Probe
	logger *zap.Logger
	id     uuid.UUID

	model string
	open  bool
}

// Option configures Client.
type Option func(c *Client)

// WithLogger sets client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithID sets session ID used in logs. Random by default.
func WithID(id uuid.UUID) Option {
	return func(c *Client) {
		c.id = id
	}
}

// New creates new closed client of given probe.
func New(p *probe.Probe, opts ...Option) *Client {
	c := &Client{
		probe:  p,
		logger: zap.NewNop(),
		id:     uuid.New(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.Stringer("session", c.id))

	return c
}

// ID returns session ID.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Model returns name of bound model, if client is open.
func (c *Client) Model() string {
	return c.model
}

// Open binds client to model with given name.
func (c *Client) Open(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.open {
		return xerrors.Errorf("open %q: %w", name, ErrAlreadyOpen)
	}

	if !c.probe.Running() {
		return xerrors.Errorf("open %q: %w", name, ErrWorkerNotRunning)
	}
	if loaded := c.probe.ModelID(); loaded != name {
		return xerrors.Errorf("open %q (loaded %q): %w", name, loaded, ErrUnknownModel)
	}

	c.model = name
	c.open = true
	c.logger.Debug("Session opened", zap.String("model", name))
	return nil
}

// Ask submits text to bound model.
//
// Returned error means misuse of the client or probe lifecycle. Rejected
// queries are reported as failed Result.
func (c *Client) Ask(ctx context.Context, text string) (Result, error) {
	if !c.open {
		return Result{}, ErrNotOpen
	}

	a, err := c.probe.Ask(ctx, c.model, text)
	if err != nil {
		if reason, ok := model.IsRejected(err); ok {
			return Failed(reason), nil
		}
		if errors.Is(err, probe.ErrNotRunning) {
			return Result{}, xerrors.Errorf("ask: %w", ErrWorkerNotRunning)
		}
		return Result{}, xerrors.Errorf("ask: %w", err)
	}

	return Accepted(a.Intent, a.Body), nil
}

// Close releases model binding. It is safe to call Close multiple times or
// on never opened client.
func (c *Client) Close() error {
	if !c.open {
		return nil
	}

	c.logger.Debug("Session closed", zap.String("model", c.model))
	c.open = false
	c.model = ""
	return nil
}
