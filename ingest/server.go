// Package ingest implements the HTTP endpoint that receives sample payloads
// and appends them to a storage.Appender.
//
// The endpoint accepts POST requests to a single path (by default
// "/adc_samples"). The request body is taken as-is, whatever its declared
// content type, and appended to the output; the response is 200 with body
// "OK". Other methods on that path get 405, other paths get 404.
//
// Append failures are logged and, by default, still answered with 200: the
// client has no way of doing anything about a full disk on the server. With
// WithStrict(true) they are answered with 500 and the error text instead.
package ingest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/nicolagi/adcsink/storage"
)

type Option func(*options)

type options struct {
	address      string
	path         string
	appender     storage.Appender
	strict       bool
	maxBodyBytes int64
}

func WithAddress(value string) Option {
	return func(o *options) {
		o.address = value
	}
}

func WithPath(value string) Option {
	return func(o *options) {
		o.path = value
	}
}

func WithAppender(value storage.Appender) Option {
	return func(o *options) {
		o.appender = value
	}
}

// WithStrict controls whether append failures are reported to the client as
// 500 responses. Off by default.
func WithStrict(value bool) Option {
	return func(o *options) {
		o.strict = value
	}
}

// WithMaxBodyBytes limits the size of accepted payloads; larger ones are
// rejected with 413. Zero, the default, means no limit.
func WithMaxBodyBytes(value int64) Option {
	return func(o *options) {
		o.maxBodyBytes = value
	}
}

type Server struct {
	opts options
	ln   net.Listener
	srv  *http.Server
}

func New(opts ...Option) *Server {
	s := &Server{}
	s.opts.address = "0.0.0.0:8000"
	s.opts.path = storage.DefaultPath
	s.opts.appender = storage.NewFile("adc.raw")
	for _, o := range opts {
		o(&s.opts)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(s.opts.path, s.handlePayload)
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Listen binds the server's address. Once it returns successfully, incoming
// connections are queued by the kernel until Serve is called.
func (s *Server) Listen() (addr string, err error) {
	s.ln, err = net.Listen("tcp", s.opts.address)
	if err != nil {
		return
	}
	addr = s.ln.Addr().String()
	return
}

// Serve handles requests on the listener bound by Listen, each in its own
// goroutine. It returns nil once Shutdown is called.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("serve called before listen")
	}
	err := s.srv.Serve(s.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Handler returns the server's request handler, for use without a listener.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Shutdown stops accepting connections and waits for in-flight requests to
// complete, or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
