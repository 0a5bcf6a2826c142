package example

import (
	"context"
	"errors"
	"fmt"

	"github.com/undertide/tagwire/rpc"
)

// ExampleService is the service contract from the IDL. Get may fail with
// *ByteException; Test returns no value.
type ExampleService interface {
	Get(ctx context.Context, requestID int64, extra int32) (*Example, error)
	Pull(ctx context.Context, name string, attrs map[string]string) (int64, error)
	Test(ctx context.Context) error
}

// Wire method names. These are part of the contract, like field tags.
const (
	MethodGet  = "Example.Get"
	MethodPull = "Example.Pull"
	MethodTest = "Example.Test"
)

// DefaultGetExtra is the declared default for Get's second parameter.
const DefaultGetExtra int32 = 1

// Args and result envelopes. A result either carries the success field or
// the exception field; the client maps the exception to a Go error.

type GetArgs struct {
	RequestID *int64 `wire:"1"`
	Extra     *int32 `wire:"2"`
}

// NewGetArgs applies parameter defaults.
func NewGetArgs() *GetArgs {
	extra := DefaultGetExtra
	return &GetArgs{Extra: &extra}
}

type GetResult struct {
	Success *Example       `wire:"1"`
	Err     *ByteException `wire:"2"`
}

type PullArgs struct {
	Name  *string           `wire:"1"`
	Attrs map[string]string `wire:"2"`
}

// NewPullArgs applies parameter defaults; Attrs starts as a fresh empty map.
func NewPullArgs() *PullArgs {
	return &PullArgs{Attrs: map[string]string{}}
}

type PullResult struct {
	Success *int64 `wire:"1"`
}

type TestArgs struct{}

type TestResult struct{}

// Client is the generated-style client for ExampleService over an Invoker.
type Client struct {
	c *rpc.Client
}

var _ ExampleService = (*Client)(nil)

func NewClient(inv rpc.Invoker, opts rpc.Options) (*Client, error) {
	c, err := rpc.NewClient(inv, opts)
	if err != nil {
		return nil, err
	}
	return &Client{c: c}, nil
}

func (c *Client) Get(ctx context.Context, requestID int64, extra int32) (*Example, error) {
	args := GetArgs{RequestID: &requestID, Extra: &extra}
	var res GetResult
	if err := c.c.Call(ctx, MethodGet, &args, &res); err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Success == nil {
		return nil, fmt.Errorf("example: Get returned neither result nor exception")
	}
	return res.Success, nil
}

func (c *Client) Pull(ctx context.Context, name string, attrs map[string]string) (int64, error) {
	args := PullArgs{Name: &name, Attrs: attrs}
	var res PullResult
	if err := c.c.Call(ctx, MethodPull, &args, &res); err != nil {
		return 0, err
	}
	if res.Success == nil {
		return 0, fmt.Errorf("example: Pull returned no result")
	}
	return *res.Success, nil
}

func (c *Client) Test(ctx context.Context) error {
	var res TestResult
	return c.c.Call(ctx, MethodTest, &TestArgs{}, &res)
}

// RegisterService binds an ExampleService implementation into a Registry.
// A *ByteException from Get travels in the result envelope; any other error
// fails the call.
func RegisterService(reg *rpc.Registry, svc ExampleService) error {
	if err := reg.Register(MethodGet, rpc.Method(func(ctx context.Context, a *GetArgs) (*GetResult, error) {
		requestID, extra := int64(0), DefaultGetExtra
		if a.RequestID != nil {
			requestID = *a.RequestID
		}
		if a.Extra != nil {
			extra = *a.Extra
		}
		v, err := svc.Get(ctx, requestID, extra)
		if err != nil {
			var be *ByteException
			if errors.As(err, &be) {
				return &GetResult{Err: be}, nil
			}
			return nil, err
		}
		return &GetResult{Success: v}, nil
	})); err != nil {
		return err
	}

	if err := reg.Register(MethodPull, rpc.Method(func(ctx context.Context, a *PullArgs) (*PullResult, error) {
		name := ""
		if a.Name != nil {
			name = *a.Name
		}
		n, err := svc.Pull(ctx, name, a.Attrs)
		if err != nil {
			return nil, err
		}
		return &PullResult{Success: &n}, nil
	})); err != nil {
		return err
	}

	return reg.Register(MethodTest, rpc.Method(func(ctx context.Context, _ *TestArgs) (*TestResult, error) {
		if err := svc.Test(ctx); err != nil {
			return nil, err
		}
		return &TestResult{}, nil
	}))
}
