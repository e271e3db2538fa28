// Package timemodel contains example model which answers questions about
// current time in a given city.
package timemodel

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	_ "time/tzdata" // tz database for systems without one
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/tdakkota/timeprobe/geo"
	"github.com/tdakkota/timeprobe/model"
)

// ID is the model identifier sessions should open.
const ID = "time.ex"

// Intent is the only intent model resolves.
const Intent = "time"

// LocalCity is reported when query does not mention a known city.
const LocalCity = "local"

// Response is the JSON body of accepted answer.
type Response struct {
	Intent    string `json:"intent"`
	City      string `json:"city"`
	Country   string `json:"country,omitempty"`
	Timezone  string `json:"timezone"`
	LocalTime string `json:"localTime"`
}

// Model resolves "what time is it in <city>" questions.
type Model struct {
	catalog *geo.Catalog
	local   *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

var _ model.Model = (*Model)(nil)

type Option func(m *Model)

// WithCatalog sets known cities.
func WithCatalog(c *geo.Catalog) Option {
	return func(m *Model) {
		m.catalog = c
	}
}

// WithDefaultLocation sets location used when query names no city.
func WithDefaultLocation(loc *time.Location) Option {
	return func(m *Model) {
		m.local = loc
	}
}

// WithClock sets time source.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// New creates new time model.
func New(opts ...Option) *Model {
	m := &Model{
		catalog: geo.DefaultCatalog(),
		local:   time.Local,
		now:     time.Now,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Model) ID() string {
	return ID
}

func hasTimeKeyword(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		switch w {
		case "time", "date", "clock":
			return true
		}
	}
	return false
}

func (m *Model) Query(ctx context.Context, q model.Query) (model.Answer, error) {
	if err := ctx.Err(); err != nil {
		return model.Answer{}, err
	}
	if !hasTimeKeyword(q.Text) {
		return model.Answer{}, model.Rejected("no matching intent")
	}

	r := Response{
		Intent:   Intent,
		City:     LocalCity,
		Timezone: m.local.String(),
	}
	loc := m.local

	if city, ok := m.catalog.Find(q.Text); ok {
		zone, _ := m.catalog.Zone(city)
		l, err := time.LoadLocation(zone)
		if err != nil {
			return model.Answer{}, xerrors.Errorf("load zone of %s: %w", city, err)
		}

		loc = l
		r.City = city.Name()
		r.Country = city.Country()
		r.Timezone = zone
	}
	r.LocalTime = m.now().In(loc).Format(time.RFC3339)

	m.logger.Debug("Resolved",
		zap.String("city", r.City),
		zap.String("timezone", r.Timezone),
	)

	body, err := json.Marshal(r)
	if err != nil {
		return model.Answer{}, xerrors.Errorf("encode response: %w", err)
	}
	return model.Answer{Intent: Intent, Body: string(body)}, nil
}
