package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var errLoginFailed = errors.New("login failed: wrong username or password")

// apiError is a non-2xx answer of the server.
type apiError struct {
	Status int
	Msg    string
}

func (e *apiError) Error() string { return fmt.Sprintf("%d: %s", e.Status, e.Msg) }

type envelope struct {
	Result  string          `json:"result"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// apiClient posts forms to /api/rest/<endpoint>/ and unwraps the envelope.
type apiClient struct {
	base string
	hc   *http.Client
}

func newAPIClient(addr string) *apiClient {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &apiClient{
		base: strings.TrimRight(addr, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) get(ctx context.Context, endpoint string, q url.Values) (json.RawMessage, error) {
	u := c.base + "/api/rest/" + endpoint + "/?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *apiClient) post(ctx context.Context, endpoint string, form url.Values) (json.RawMessage, error) {
	u := c.base + "/api/rest/" + endpoint + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *apiClient) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var env envelope
	jsonErr := json.Unmarshal(body, &env)
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(string(body))
		if jsonErr == nil && env.Message != "" {
			msg = env.Message
		}
		return nil, &apiError{Status: resp.StatusCode, Msg: msg}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("decode response: %w", jsonErr)
	}
	if env.Result == "login failed" {
		return nil, errLoginFailed
	}
	return env.Data, nil
}
