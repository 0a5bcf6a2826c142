// Package rpc carries the service-contract surface around the tagwire
// codec: typed args/result envelopes in, opaque byte payloads out. The
// actual transport (framing, connections, retries) is an external
// collaborator behind the Invoker interface.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/undertide/tagwire"
)

// DefaultMaxResponse caps decoded response payloads unless overridden.
const DefaultMaxResponse = 5 * 1024 * 1024 // 5 MB

// ErrUnknownMethod is returned by a Registry for unregistered method names.
var ErrUnknownMethod = errors.New("rpc: unknown method")

// Invoker delivers one encoded request to a named method and returns the
// encoded response. Implementations live in transport libraries; Registry
// provides an in-process one.
type Invoker interface {
	Invoke(ctx context.Context, method string, request []byte) (response []byte, err error)
}

// Options tune a Client. The zero value is usable; defaults are applied
// by NewClient.
type Options struct {
	Logger      tagwire.Logger // nil => NopLogger
	MaxResponse int            // max response bytes accepted; 0 => DefaultMaxResponse, <0 => unlimited
}

// Client encodes call arguments, hands them to an Invoker, and decodes the
// result envelope. Generated service clients wrap it with typed methods.
type Client struct {
	inv         Invoker
	log         tagwire.Logger
	maxResponse int
}

func NewClient(inv Invoker, opts Options) (*Client, error) {
	if inv == nil {
		return nil, fmt.Errorf("rpc: invoker is required")
	}
	log := opts.Logger
	if log == nil {
		log = tagwire.NopLogger{}
	}
	c := &Client{
		inv:         inv,
		log:         log,
		maxResponse: coalesce(opts.MaxResponse, DefaultMaxResponse),
	}
	return c, nil
}

// Call invokes method with args encoded in the tagwire format and decodes
// the response into result. result may be nil for calls whose response body
// is discarded.
func (c *Client) Call(ctx context.Context, method string, args, result any) error {
	req, err := tagwire.Marshal(args)
	if err != nil {
		return fmt.Errorf("rpc: %s: encode args: %w", method, err)
	}
	c.log.Debug("rpc call", tagwire.Fields{"method": method, "request_bytes": len(req)})

	resp, err := c.inv.Invoke(ctx, method, req)
	if err != nil {
		c.log.Warn("rpc call failed", tagwire.Fields{"method": method, "error": err.Error()})
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	if c.maxResponse > 0 && len(resp) > c.maxResponse {
		return fmt.Errorf("rpc: %s: response too large: %d > %d", method, len(resp), c.maxResponse)
	}
	if result == nil {
		return nil
	}
	if err := tagwire.Unmarshal(resp, result); err != nil {
		return fmt.Errorf("rpc: %s: decode result: %w", method, err)
	}
	return nil
}

// Registry maps method names to handlers. It implements Invoker, so it
// doubles as an in-process loopback; a transport server would hold one and
// feed it decoded frames.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Handler
	log     tagwire.Logger
}

// Handler serves one encoded request.
type Handler func(ctx context.Context, request []byte) ([]byte, error)

func NewRegistry(log tagwire.Logger) *Registry {
	if log == nil {
		log = tagwire.NopLogger{}
	}
	return &Registry{
		methods: make(map[string]Handler),
		log:     log,
	}
}

func (r *Registry) Register(method string, h Handler) error {
	if method == "" || h == nil {
		return fmt.Errorf("rpc: method name and handler are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.methods[method]; dup {
		return fmt.Errorf("rpc: method %q already registered", method)
	}
	r.methods[method] = h
	return nil
}

func (r *Registry) Invoke(ctx context.Context, method string, request []byte) ([]byte, error) {
	r.mu.RLock()
	h, ok := r.methods[method]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn("rpc dispatch miss", tagwire.Fields{"method": method})
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	resp, err := h(ctx, request)
	if err != nil {
		r.log.Error("rpc handler error", tagwire.Fields{"method": method, "error": err.Error()})
		return nil, err
	}
	return resp, nil
}

// Method adapts a typed handler into a Handler: it decodes the args
// envelope, runs fn, and encodes the result envelope. Application-level
// exceptions belong inside R; a Go error from fn is a call failure.
func Method[A, R any](fn func(ctx context.Context, args *A) (*R, error)) Handler {
	return func(ctx context.Context, request []byte) ([]byte, error) {
		var args A
		if err := tagwire.Unmarshal(request, &args); err != nil {
			return nil, err
		}
		res, err := fn(ctx, &args)
		if err != nil {
			return nil, err
		}
		return tagwire.Marshal(res)
	}
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
