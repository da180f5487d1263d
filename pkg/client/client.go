package client

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 30 * time.Second

// Config - connection settings for the query endpoint.
type Config struct {
	Address  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client - a thin client for the server's HTTP query endpoint. Every query
// is one POST with a JSON body; the connection is closed per request, which
// is what the server does anyway.
type Client struct {
	cfg  Config
	http *fasthttp.Client
}

// New - creates a client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{cfg: cfg, http: &fasthttp.Client{}}
}

// Query - sends one query and returns the raw response body and status.
func (c *Client) Query(query string) (string, int, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", 0, fmt.Errorf("encode query failed: %w", err)
	}

	request := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(request)
	response := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(response)

	request.SetRequestURI("http://" + c.cfg.Address + "/")
	request.Header.SetMethod(fasthttp.MethodPost)
	request.Header.SetContentType("application/json")
	request.Header.Set("Username", c.cfg.Username)
	if c.cfg.Password != "" {
		request.Header.Set("Password", c.cfg.Password)
	}
	request.SetConnectionClose()
	request.SetBody(body)

	if err := c.http.DoTimeout(request, response, c.cfg.Timeout); err != nil {
		return "", 0, fmt.Errorf("query request failed: %w", err)
	}

	return string(response.Body()), response.StatusCode(), nil
}
