package relay

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client forwards requests to the fixed third-party completions host.
// Responses are not parsed so the caller can stream them back chunk for
// chunk.
type Client struct {
	http *resty.Client
}

func NewClient(upstreamURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(upstreamURL, "/")).
		SetTimeout(timeout).
		SetDoNotParseResponse(true)

	return &Client{http: c}
}

// Forward relays one request upstream. The caller-supplied authorization is
// passed through untouched; the body is streamed as-is.
func (c *Client) Forward(
	ctx context.Context,
	method, path, authorization, contentType, accept string,
	body io.Reader,
) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", authorization)

	if contentType != "" {
		req.SetHeader("Content-Type", contentType)
	}
	if accept != "" {
		req.SetHeader("Accept", accept)
	}
	if body != nil {
		req.SetBody(body)
	}

	return req.Execute(method, "/"+strings.TrimLeft(path, "/"))
}
