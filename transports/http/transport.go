// Package httptransport delivers draco calls to the game server over HTTPS.
// Each call is a multipart form post carrying the service name, the method
// name and the encoded arguments as a file part. The session token travels
// in the dcportal header in both directions.
package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/RobertWHurst/draco"
	"github.com/klauspost/compress/gzip"
)

// DefaultEndpoint is the production game server.
const DefaultEndpoint = "https://us.draconiusgo.com"

// PortalHeader carries the session token.
const PortalHeader = "dcportal"

// DefaultHeaders are sent with every request and match the iOS client the
// protocol was observed with.
var DefaultHeaders = map[string]string{
	"User-Agent":       "DraconiusGO/6935 CFNetwork/811.5.4 Darwin/16.7.0",
	"Accept":           "*/*",
	"Accept-Language":  "en-us",
	"Protocol-Version": "2373924766",
	"X-Unity-Version":  "2017.1.0f3",
	"Client-Version":   "6935",
	"Accept-Encoding":  "gzip",
}

// pingContentType is sent verbatim, including the stray space the game
// client puts in it.
const pingContentType = "application /x-www-form-urlencoded"

// HTTPTransport implements draco.Transport over HTTP.
type HTTPTransport struct {
	Endpoint   string
	Headers    http.Header
	HTTPClient *http.Client

	proxy *url.URL
}

var _ draco.Transport = &HTTPTransport{}

// Option configures an HTTPTransport.
type Option func(t *HTTPTransport)

// WithEndpoint sets the base URL calls are posted to.
func WithEndpoint(endpoint string) Option {
	return func(t *HTTPTransport) {
		t.Endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithProxy routes requests through an HTTP proxy. It has no effect when
// WithHTTPClient is also given.
func WithProxy(proxy *url.URL) Option {
	return func(t *HTTPTransport) {
		t.proxy = proxy
	}
}

// WithHeader adds or replaces a header sent with every request.
func WithHeader(key, value string) Option {
	return func(t *HTTPTransport) {
		t.Headers.Set(key, value)
	}
}

// WithHTTPClient replaces the HTTP client. The client should have a cookie
// jar; the game server tracks sessions with cookies as well as the portal
// token.
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPTransport) {
		t.HTTPClient = client
	}
}

// New creates an HTTP transport with its own cookie jar.
func New(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		Endpoint: DefaultEndpoint,
		Headers:  make(http.Header),
	}
	for key, value := range DefaultHeaders {
		t.Headers.Set(key, value)
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.HTTPClient == nil {
		proxy := http.ProxyFromEnvironment
		if t.proxy != nil {
			proxy = http.ProxyURL(t.proxy)
		}
		jar, _ := cookiejar.New(nil)
		t.HTTPClient = &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				Proxy:               proxy,
				DisableCompression:  true,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	return t
}

// Call posts call to /serviceCall and returns the decompressed reply body.
func (t *HTTPTransport) Call(ctx context.Context, call *draco.Call) (*draco.Response, error) {
	body, contentType, err := formBody(call)
	if err != nil {
		return nil, err
	}

	req, err := t.newRequest(ctx, "/serviceCall", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if call.Portal != "" {
		req.Header.Set(PortalHeader, call.Portal)
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	return &draco.Response{
		Body:   data,
		Portal: resp.Header.Get(PortalHeader),
	}, nil
}

// Ping posts an empty form to /ping.
func (t *HTTPTransport) Ping(ctx context.Context) error {
	req, err := t.newRequest(ctx, "/ping", http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", pingContentType)

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus(resp)
}

func (t *HTTPTransport) Close() error {
	t.HTTPClient.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint+path, body)
	if err != nil {
		return nil, err
	}
	for key, values := range t.Headers {
		req.Header[key] = append([]string(nil), values...)
	}
	return req, nil
}

func formBody(call *draco.Call) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("service", call.Service); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("method", call.Method); err != nil {
		return nil, "", err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="args"; filename="args.dat"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(call.Args); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &body, mw.FormDataContentType(), nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &draco.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
}

// readBody reads at most draco.MaxDecodeSize bytes of the reply, inflating
// it first when the server compressed it.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("httptransport: gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	limit := draco.MaxDecodeSize
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, draco.ErrReplyTooLarge
	}
	return data, nil
}
