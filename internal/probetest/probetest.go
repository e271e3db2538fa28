// Package probetest contains helpers for testing models with embedded probe.
package probetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tdakkota/timeprobe/client"
	"github.com/tdakkota/timeprobe/model"
	"github.com/tdakkota/timeprobe/probe"
)

// Open starts embedded probe with given model and opens client to it.
//
// Client close and probe stop are registered with t.Cleanup, so they run even
// if test fails midway.
func Open(t testing.TB, m model.Model, opts ...probe.Option) *client.Client {
	t.Helper()
	logger := zaptest.NewLogger(t)

	p := probe.New(append([]probe.Option{probe.WithLogger(logger.Named("probe"))}, opts...)...)
	require.NoError(t, p.Start(m))
	t.Cleanup(func() {
		if err := p.Stop(); err != nil && !errors.Is(err, probe.ErrNotRunning) {
			t.Errorf("stop probe: %v", err)
		}
	})

	c := client.New(p, client.WithLogger(logger.Named("client")))
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("close client: %v", err)
		}
	})
	require.NoError(t, c.Open(context.Background(), m.ID()))

	return c
}
