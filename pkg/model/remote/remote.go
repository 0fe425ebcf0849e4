// Package remote is a MaskedLM backed by an inference service speaking
// msgpack over HTTP.
//
// The request body is a msgpack-encoded model.Batch. The service answers with
// the rows it computed:
//
//	{"rows": [{"w": 0, "p": 3, "logits": [...]}, ...]}
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bastiangx/nameserve/pkg/model"
	"github.com/vmihailenco/msgpack/v5"
)

const contentType = "application/msgpack"

// Options configures the client.
type Options struct {
	Endpoint       string
	TimeoutSeconds int
}

// Client is safe for concurrent use.
type Client struct {
	hc  *http.Client
	url string
}

var _ model.MaskedLM = (*Client)(nil)

type row struct {
	Window   int       `msgpack:"w"`
	Position int       `msgpack:"p"`
	Logits   []float32 `msgpack:"logits"`
}

type response struct {
	Rows  []row  `msgpack:"rows"`
	Error string `msgpack:"error,omitempty"`
}

// New returns a client for opts.Endpoint. A zero timeout means 60 seconds.
func New(opts Options) (*Client, error) {
	if !strings.HasPrefix(opts.Endpoint, "http://") && !strings.HasPrefix(opts.Endpoint, "https://") {
		return nil, fmt.Errorf("remote model endpoint %q is not an http url", opts.Endpoint)
	}
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = 60
	}
	return &Client{
		hc:  &http.Client{Timeout: time.Duration(opts.TimeoutSeconds) * time.Second},
		url: opts.Endpoint,
	}, nil
}

// Forward implements model.MaskedLM. Failed calls are not retried.
func (c *Client) Forward(ctx context.Context, batch *model.Batch) (model.Output, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	body, err := msgpack.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read forward response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("model service returned %d: %s", resp.StatusCode, snippet(raw))
	}

	var out response
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode forward response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("model service: %s", out.Error)
	}

	rows := make(model.Rows, len(out.Rows))
	for _, r := range out.Rows {
		rows[[2]int{r.Window, r.Position}] = r.Logits
	}
	return rows, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
