package timemodel

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tdakkota/timeprobe/geo"
	"github.com/tdakkota/timeprobe/model"
)

var testNow = time.Date(2020, time.June, 1, 12, 0, 0, 0, time.UTC)

func testModel(t *testing.T, opts ...Option) *Model {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithDefaultLocation(time.UTC),
		WithLogger(zaptest.NewLogger(t)),
	}, opts...)
	return New(opts...)
}

func query(t *testing.T, m *Model, text string) Response {
	t.Helper()
	a := require.New(t)

	ans, err := m.Query(context.Background(), model.Query{Text: text})
	a.NoError(err)
	a.Equal(Intent, ans.Intent)

	var r Response
	a.NoError(json.Unmarshal([]byte(ans.Body), &r))
	return r
}

func TestModelCity(t *testing.T) {
	m := testModel(t)
	require.Equal(t, ID, m.ID())

	tests := []struct {
		text      string
		city      string
		timezone  string
		localTime string
	}{
		{"What time is it now in New York City?", "New York", "America/New_York", "2020-06-01T08:00:00-04:00"},
		{"What's the current time in Moscow?", "Moscow", "Europe/Moscow", "2020-06-01T15:00:00+03:00"},
		{"Show me time of the day in London.", "London", "Europe/London", "2020-06-01T13:00:00+01:00"},
		{"Can you please give me the San Francisco's current date and time.", "San Francisco", "America/Los_Angeles", "2020-06-01T05:00:00-07:00"},
	}

	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			r := query(t, m, tt.text)
			require.Equal(t, tt.city, r.City)
			require.Equal(t, tt.timezone, r.Timezone)
			require.Equal(t, tt.localTime, r.LocalTime)
		})
	}
}

func TestModelLocal(t *testing.T) {
	a := require.New(t)
	loc := time.FixedZone("TEST", 2*60*60)
	m := testModel(t, WithDefaultLocation(loc))

	r := query(t, m, "What's the local time?")
	a.Equal(LocalCity, r.City)
	a.Empty(r.Country)
	a.Equal("TEST", r.Timezone)
	a.Equal("2020-06-01T14:00:00+02:00", r.LocalTime)
}

func TestModelCustomCatalog(t *testing.T) {
	m := testModel(t, WithCatalog(geo.NewCatalog(geo.Entry{
		City: geo.NewCity("Reykjavik", "Iceland"),
		Zone: "Atlantic/Reykjavik",
	})))

	r := query(t, m, "clock in reykjavik")
	require.Equal(t, "Reykjavik", r.City)
	require.Equal(t, "Iceland", r.Country)

	r = query(t, m, "time in Moscow")
	require.Equal(t, LocalCity, r.City)
}

func TestModelRejects(t *testing.T) {
	m := testModel(t)

	for _, text := range []string{
		"",
		"What's the weather in London?",
		"timeless classics",
	} {
		_, err := m.Query(context.Background(), model.Query{Text: text})
		reason, ok := model.IsRejected(err)
		require.Truef(t, ok, "%q: %v", text, err)
		require.Equal(t, "no matching intent", reason)
	}
}

func TestModelBadZone(t *testing.T) {
	m := testModel(t, WithCatalog(geo.NewCatalog(geo.Entry{
		City: geo.NewCity("Atlantis", ""),
		Zone: "Ocean/Atlantis",
	})))

	_, err := m.Query(context.Background(), model.Query{Text: "time in Atlantis"})
	require.Error(t, err)
	_, ok := model.IsRejected(err)
	require.False(t, ok)
}

func TestModelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testModel(t).Query(ctx, model.Query{Text: "time"})
	require.ErrorIs(t, err, context.Canceled)
}
