package client

import "wampio/pkg/wamp"

// Feature and role names announced during the handshake.
const (
    RolePublisher  = "publisher"
    RoleSubscriber = "subscriber"
    RoleCaller     = "caller"
    RoleCallee     = "callee"

    FeatureCallCanceling   = "call_canceling"
    FeatureCallTimeout     = "call_timeout"
    FeatureProgCallResults = "progressive_call_results"
    FeaturePubExclusion    = "publisher_exclusion"
)

// Cancellation modes for outstanding calls.
const (
    CancelSkip       = "skip"
    CancelKill       = "kill"
    CancelKillNoWait = "killnowait"
)

// clientRoles is the role/feature set sent in the Hello details.
func clientRoles() wamp.Dict {
    return wamp.Dict{
        RolePublisher: wamp.Dict{"features": wamp.Dict{
            FeaturePubExclusion: true,
        }},
        RoleSubscriber: wamp.Dict{"features": wamp.Dict{}},
        RoleCaller: wamp.Dict{"features": wamp.Dict{
            FeatureCallCanceling:   true,
            FeatureCallTimeout:     true,
            FeatureProgCallResults: true,
        }},
        RoleCallee: wamp.Dict{"features": wamp.Dict{
            FeatureCallCanceling:   true,
            FeatureProgCallResults: true,
        }},
    }
}
