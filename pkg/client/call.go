package client

import (
    "context"
    "sync"

    "wampio/pkg/wamp"
)

// CallResult is the payload of a call result or progress notification.
type CallResult struct {
    Args    wamp.List
    Kwargs  wamp.Dict
    Details wamp.Dict
}

// ProgressHandler receives intermediate results of a progressive call. It
// runs on the dispatch path and must not block.
type ProgressHandler func(*CallResult)

// Call invokes a remote procedure and waits for its single result. If ctx
// expires first, a Cancel is sent (mode from options["mode"], default
// killnowait) and ctx's error is returned; the pending entry stays behind
// to absorb whatever terminal message the router eventually delivers.
func (c *Client) Call(ctx context.Context, procedure wamp.URI, args wamp.List, kwargs wamp.Dict, options wamp.Dict) (*CallResult, error) {
    return c.call(ctx, procedure, args, kwargs, options, nil)
}

// CallProgressive invokes a remote procedure negotiated for progressive
// results: every intermediate result is handed to onProgress, and the final
// one is returned.
func (c *Client) CallProgressive(ctx context.Context, procedure wamp.URI, args wamp.List, kwargs wamp.Dict, options wamp.Dict, onProgress ProgressHandler) (*CallResult, error) {
    opts := make(wamp.Dict, len(options)+1)
    for k, v := range options {
        opts[k] = v
    }
    opts["receive_progress"] = true
    return c.call(ctx, procedure, args, kwargs, opts, onProgress)
}

func (c *Client) call(ctx context.Context, procedure wamp.URI, args wamp.List, kwargs wamp.Dict, options wamp.Dict, onProgress ProgressHandler) (*CallResult, error) {
    req := c.idGen.Next()
    msg := &wamp.Call{
        Request:   req,
        Options:   options,
        Procedure: procedure,
        Args:      args,
        Kwargs:    kwargs,
    }

    w := &callWaiter{
        progressive: onProgress != nil,
        onProgress:  onProgress,
        ch:          make(chan result, 1),
        abandoned:   make(chan struct{}),
    }
    if err := c.sess.expect(req, w); err != nil {
        return nil, err
    }
    if err := c.sess.Send(msg); err != nil {
        c.sess.unexpect(req)
        return nil, err
    }

    select {
    case r := <-w.ch:
        if r.err != nil {
            return nil, r.err
        }
        res := r.msg.(*wamp.Result)
        return &CallResult{Args: res.Args, Kwargs: res.Kwargs, Details: res.Details}, nil
    case <-ctx.Done():
        // advisory: the router may still deliver a Result that won the race
        w.abandon()
        mode, ok := wamp.AsString(options["mode"])
        if !ok {
            mode = CancelKillNoWait
        }
        _ = c.sess.Send(&wamp.Cancel{Request: req, Options: wamp.Dict{"mode": mode}})
        return nil, ctx.Err()
    }
}

// callWaiter is the pending-request entry for a call. Unlike plain request
// waiters it survives intermediate progressive results, and it survives
// cancellation: once abandoned it silently absorbs the terminal message.
type callWaiter struct {
    progressive bool
    onProgress  ProgressHandler
    ch          chan result

    abandoned   chan struct{}
    abandonOnce sync.Once
}

func (w *callWaiter) abandon() {
    w.abandonOnce.Do(func() { close(w.abandoned) })
}

func (w *callWaiter) dead() bool {
    select {
    case <-w.abandoned:
        return true
    default:
        return false
    }
}

func (w *callWaiter) deliver(msg wamp.Message) (bool, error) {
    switch m := msg.(type) {
    case *wamp.Result:
        if m.Progressive() {
            if !w.progressive {
                // a "more to come" result on a plain call is protocol misuse
                return false, &wamp.InvalidMessageError{
                    Reason: "progressive result for non-progressive call",
                }
            }
            if !w.dead() && w.onProgress != nil {
                w.onProgress(&CallResult{Args: m.Args, Kwargs: m.Kwargs, Details: m.Details})
            }
            return false, nil
        }
        w.resolve(result{msg: m})
        return true, nil
    case *wamp.Error:
        if m.ErrType != wamp.CALL {
            return false, nil
        }
        w.resolve(result{err: wamp.ResponseError(m)})
        return true, nil
    default:
        w.resolve(result{err: &wamp.UnexpectedMessageError{Got: msg.MessageType(), Want: wamp.RESULT}})
        return true, nil
    }
}

func (w *callWaiter) resolve(r result) {
    if w.dead() {
        return
    }
    select {
    case w.ch <- r:
    default:
    }
}

func (w *callWaiter) fail(err error) { w.resolve(result{err: err}) }
