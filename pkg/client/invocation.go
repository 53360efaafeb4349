package client

import (
    "context"
    "errors"
    "fmt"

    "go.uber.org/zap"

    "wampio/pkg/wamp"
)

// InvocationHandler implements a registered procedure. It runs on its own
// goroutine per invocation. The context is cancelled when the router sends
// an Interrupt or the session terminates; honoring it is advisory but the
// handler must eventually return.
//
// Returning a nil error sends the returned payload as the final Yield.
// Returning an *InvocationError sends a protocol Error with its URI; any
// other error is wrapped as wamp.error.runtime_error.
type InvocationHandler func(ctx context.Context, inv *Invocation) (wamp.List, wamp.Dict, error)

// InvocationError lets a procedure fail a call with a specific error URI
// and payload.
type InvocationError struct {
    URI    wamp.URI
    Args   wamp.List
    Kwargs wamp.Dict
}

func (e *InvocationError) Error() string { return "invocation failed: " + string(e.URI) }

var errDoubleTerminal = errors.New("invocation already completed")

// Invocation is the execution context of one inbound call to a registered
// procedure.
type Invocation struct {
    Procedure wamp.URI
    Args      wamp.List
    Kwargs    wamp.Dict
    Details   wamp.Dict

    c      *Client
    req    wamp.ID
    cancel context.CancelFunc

    // terminal guard: owned by the runner goroutine except for explicit
    // SendResult/SendError calls made by the handler itself, which also run
    // on that goroutine. No lock needed.
    done bool
}

// CallerWantsProgress reports whether the caller negotiated progressive
// results.
func (inv *Invocation) CallerWantsProgress() bool {
    p, _ := inv.Details["receive_progress"].(bool)
    return p
}

// SendProgress emits an intermediate Yield. It fails if the caller did not
// ask for progress or the invocation already completed.
func (inv *Invocation) SendProgress(args wamp.List, kwargs wamp.Dict) error {
    if inv.done {
        return errDoubleTerminal
    }
    if !inv.CallerWantsProgress() {
        return fmt.Errorf("caller is unwilling to receive progress")
    }
    return inv.c.sess.Send(&wamp.Yield{
        Request: inv.req,
        Options: wamp.Dict{"progress": true},
        Args:    args,
        Kwargs:  kwargs,
    })
}

// SendResult sends the final Yield explicitly. After a successful
// SendResult the handler should return (nil, nil, nil); any further payload
// or error it returns is a double terminal and is reported, not sent.
func (inv *Invocation) SendResult(args wamp.List, kwargs wamp.Dict) error {
    if inv.done {
        return errDoubleTerminal
    }
    inv.done = true
    return inv.c.sess.Send(&wamp.Yield{Request: inv.req, Args: args, Kwargs: kwargs})
}

// SendError fails the call explicitly, with the same double-terminal rules
// as SendResult.
func (inv *Invocation) SendError(uri wamp.URI, args wamp.List, kwargs wamp.Dict) error {
    if inv.done {
        return errDoubleTerminal
    }
    inv.done = true
    return inv.c.sess.Send(&wamp.Error{
        ErrType: wamp.INVOCATION,
        Request: inv.req,
        Error:   uri,
        Args:    args,
        Kwargs:  kwargs,
    })
}

// run executes the handler and guarantees exactly one terminal message per
// invocation.
func (c *Client) runInvocation(ctx context.Context, inv *Invocation, handler InvocationHandler) {
    defer func() {
        if r := recover(); r != nil {
            err := fmt.Errorf("procedure %s panicked: %v", inv.Procedure, r)
            c.report(err)
            if !inv.done {
                _ = inv.SendError(wamp.ErrRuntimeError, wamp.List{err.Error()}, nil)
            }
        }
        c.finishInvocation(inv.req)
    }()

    args, kwargs, err := handler(ctx, inv)

    if inv.done {
        // handler replied explicitly; returning more is a local
        // programming error, reported but not forwarded
        if err != nil || args != nil || kwargs != nil {
            c.report(fmt.Errorf("procedure %s: %w", inv.Procedure, errDoubleTerminal))
        }
        return
    }

    if err != nil {
        var invErr *InvocationError
        if errors.As(err, &invErr) {
            _ = inv.SendError(invErr.URI, invErr.Args, invErr.Kwargs)
        } else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
            _ = inv.SendError(wamp.ErrCanceled, nil, nil)
        } else {
            c.report(fmt.Errorf("procedure %s: %w", inv.Procedure, err))
            _ = inv.SendError(wamp.ErrRuntimeError, wamp.List{err.Error()}, nil)
        }
        return
    }

    if sendErr := inv.SendResult(args, kwargs); sendErr != nil {
        c.log.Debug("yield not sent", zap.Error(sendErr))
    }
}
