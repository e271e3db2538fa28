package model

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"

	"golang.org/x/xerrors"
)

// HTTPModel is a Model served by remote endpoint.
type HTTPModel struct {
	client   *http.Client
	endpoint string
	id       string
}

// HTTPModelOption configures HTTPModel.
type HTTPModelOption func(m *HTTPModel)

// WithClient sets HTTP client.
func WithClient(c *http.Client) HTTPModelOption {
	return func(m *HTTPModel) {
		m.client = c
	}
}

// WithEndpoint sets URL queries are POSTed to.
func WithEndpoint(endpoint string) HTTPModelOption {
	return func(m *HTTPModel) {
		m.endpoint = endpoint
	}
}

// NewHTTPModel creates model with given ID served by remote endpoint.
func NewHTTPModel(id string, opts ...HTTPModelOption) HTTPModel {
	h := HTTPModel{
		client:   http.DefaultClient,
		endpoint: "http://localhost:8081/ask",
		id:       id,
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

type httpResponse struct {
	Intent string `json:"intent"`
	Body   string `json:"body"`
	Error  string `json:"error"`
}

func (h HTTPModel) ID() string {
	return h.id
}

func (h HTTPModel) Query(ctx context.Context, q Query) (a Answer, err error) {
	var buf bytes.Buffer
	err = json.NewEncoder(&buf).Encode(q)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &buf)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s, _ := ioutil.ReadAll(resp.Body)
		err = xerrors.Errorf("bad http code %d: %s", resp.StatusCode, string(s))
		return
	}

	var r httpResponse
	if err = json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return
	}
	if r.Error != "" {
		return Answer{}, Rejected(r.Error)
	}

	return Answer{Intent: r.Intent, Body: r.Body}, nil
}
