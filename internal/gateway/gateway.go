package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/muhammadolammi/jobmatchclient/internal/auth"
	"github.com/tidwall/gjson"
)

const (
	ClientKeyHeader = "X-Client-Key"
	RefreshPath     = "/refresh"
)

type Config struct {
	BaseURL   string
	ClientKey string
	Timeout   time.Duration
	LoginPath string
	// RedirectToLogin receives LoginPath once a refresh has failed and the
	// credential has been cleared.
	RedirectToLogin func(path string)
	Logger          *log.Logger
}

// Gateway is the single HTTP entry point to the backend. It attaches
// credentials and performs at most one refresh per request.
type Gateway struct {
	client  *resty.Client
	stream  *resty.Client
	session *auth.Session
	cfg     Config
	logger  *log.Logger
}

func New(cfg Config, session *auth.Session) *Gateway {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader(ClientKeyHeader, cfg.ClientKey)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	// push channels stay open indefinitely, so they get a client without a
	// timeout that shares the cookie jar holding the refresh cookie.
	stream := resty.NewWithClient(&http.Client{Jar: client.GetClient().Jar}).
		SetBaseURL(cfg.BaseURL).
		SetHeader(ClientKeyHeader, cfg.ClientKey)
	return &Gateway{client: client, stream: stream, session: session, cfg: cfg, logger: logger}
}

func (g *Gateway) Session() *auth.Session {
	return g.session
}

type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Header map[string]string
	Body   any
	// Result is decoded from a 2xx JSON body when set.
	Result any

	// multipart upload
	FileField string
	FileName  string
	File      []byte
	FormData  map[string]string

	// Stream leaves the response body open in Response.Raw.
	Stream bool
	// NoRefresh marks auth endpoints whose 401 means bad input, not an
	// expired credential.
	NoRefresh bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Raw        io.ReadCloser
}

// Do issues req with the current credential. A first 401 triggers one
// refresh and one reissue; every other failure goes back to the caller.
func (g *Gateway) Do(ctx context.Context, req Request) (*Response, error) {
	return g.do(ctx, req, 0)
}

func (g *Gateway) do(ctx context.Context, req Request, retries int) (*Response, error) {
	resp, err := g.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && retries == 0 && !req.NoRefresh {
		g.logger.Printf("🔑 %s %s unauthorized, refreshing credential", req.Method, req.Path)
		if err := g.Refresh(ctx); err != nil {
			g.expire(ctx)
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return g.do(ctx, req, retries+1)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, resp.Body)
	}

	if req.Result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, req.Result); err != nil {
			return resp, fmt.Errorf("decode %s %s response: %w", req.Method, req.Path, err)
		}
	}
	return resp, nil
}

// Stream opens a long-lived GET, subject to the same refresh policy as Do.
func (g *Gateway) Stream(ctx context.Context, path string, header map[string]string) (io.ReadCloser, error) {
	resp, err := g.Do(ctx, Request{Method: http.MethodGet, Path: path, Header: header, Stream: true})
	if err != nil {
		return nil, err
	}
	return resp.Raw, nil
}

// Refresh exchanges the current credential for a new one and persists it.
func (g *Gateway) Refresh(ctx context.Context) error {
	resp, err := g.send(ctx, Request{Method: http.MethodPost, Path: RefreshPath})
	if err != nil {
		return fmt.Errorf("refresh request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, resp.Body)
	}
	token := gjson.GetBytes(resp.Body, "access_token").String()
	if token == "" {
		return errors.New("refresh response carried no access_token")
	}
	return g.session.SetToken(ctx, token)
}

func (g *Gateway) expire(ctx context.Context) {
	if err := g.session.Clear(ctx); err != nil {
		g.logger.Printf("⚠️ failed to clear credential: %v", err)
	}
	if g.cfg.RedirectToLogin != nil {
		g.cfg.RedirectToLogin(g.cfg.LoginPath)
	}
}

func (g *Gateway) send(ctx context.Context, req Request) (*Response, error) {
	client := g.client
	if req.Stream {
		client = g.stream
	}
	r := client.R().SetContext(ctx)

	token, err := g.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		r.SetHeader("Authorization", "Bearer "+token)
	}
	for k, v := range req.Header {
		r.SetHeader(k, v)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.File != nil {
		r.SetFileReader(req.FileField, req.FileName, bytes.NewReader(req.File))
		r.SetFormData(req.FormData)
	} else if req.Body != nil {
		r.SetBody(req.Body)
	}
	if req.Stream {
		r.SetDoNotParseResponse(true)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	out := &Response{StatusCode: resp.StatusCode(), Header: resp.Header()}
	if !req.Stream {
		out.Body = resp.Body()
		return out, nil
	}

	raw := resp.RawBody()
	if out.StatusCode >= 200 && out.StatusCode <= 299 {
		out.Raw = raw
		return out, nil
	}
	if raw != nil {
		out.Body, _ = io.ReadAll(raw)
		raw.Close()
	}
	return out, nil
}
