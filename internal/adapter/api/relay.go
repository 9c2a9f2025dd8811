package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
)

// streamWriteTimeout bounds each chunk write to the client. A completion
// stream can stay open far longer than the server's global write timeout, so
// the deadline is pushed out per chunk instead of covering the whole response.
const streamWriteTimeout = 30 * time.Second

func (s *Server) MountRelay() {
	s.handler.Any("/openai/*", s.RelayCompletions)
}

// relayErrorBody mirrors the error envelope the upstream API uses, so clients
// handle relay-produced and upstream errors the same way.
type relayErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func relayError(c echo.Context, status int, message string) error {
	var body relayErrorBody
	body.Error.Message = message
	return c.JSON(status, body)
}

// RelayCompletions forwards a request to the completions host and plays the
// response back. The caller's bearer credential passes through untouched;
// streaming bodies are flushed chunk for chunk.
func (s *Server) RelayCompletions(c echo.Context) error {
	req := c.Request()

	if req.Method == http.MethodOptions {
		return c.NoContent(http.StatusNoContent)
	}

	path := c.Param("*")
	if path == "" {
		return relayError(c, http.StatusBadRequest, "Missing path")
	}

	authorization := req.Header.Get("Authorization")
	if authorization == "" {
		return relayError(c, http.StatusBadRequest, "Missing Authorization header")
	}

	ua := useragent.Parse(req.UserAgent())
	s.logger.Info("relaying completion request",
		"method", req.Method,
		"path", path,
		"browser", ua.Name,
		"os", ua.OS,
	)

	var body io.Reader
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		body = req.Body
	}

	upstream, err := s.relayClient.Forward(
		req.Context(),
		req.Method,
		path,
		authorization,
		req.Header.Get("Content-Type"),
		req.Header.Get("Accept"),
		body,
	)
	if err != nil {
		return relayError(c, http.StatusBadGateway, fmt.Sprintf("Upstream request failed: %v", err))
	}

	raw := upstream.RawBody()
	defer func() {
		_ = raw.Close()
	}()

	resp := c.Response()
	if ct := upstream.Header().Get("Content-Type"); ct != "" {
		resp.Header().Set(echo.HeaderContentType, ct)
	}
	if cc := upstream.Header().Get("Cache-Control"); cc != "" {
		resp.Header().Set("Cache-Control", cc)
	}

	// Not every ResponseWriter supports deadlines (test recorders don't), so
	// the error is ignored and the global timeout applies there instead.
	rc := http.NewResponseController(resp)
	_ = rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout))

	resp.WriteHeader(upstream.StatusCode())

	// Flush per chunk so server-sent events reach the client as they arrive.
	buf := make([]byte, 4096)
	for {
		n, readErr := raw.Read(buf)
		if n > 0 {
			if _, err := resp.Write(buf[:n]); err != nil {
				return nil
			}
			resp.Flush()
			_ = rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		}
		if readErr != nil {
			if readErr != io.EOF {
				s.logger.Warn("upstream stream interrupted", "error", readErr)
			}
			return nil
		}
	}
}
