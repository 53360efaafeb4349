package wamp

// Message is one variant of the closed set of WAMP message kinds. Instances
// are immutable once constructed: nothing in this package mutates a message
// after it has been built or decoded.
//
// The unexported encode method keeps the set closed to this package.
type Message interface {
    MessageType() Type
    encode() List
}

// orEmpty normalizes a details/options dict for the wire: the slot is always
// present, possibly empty.
func orEmpty(d Dict) Dict {
    if d == nil {
        return Dict{}
    }
    return d
}

// appendPayload appends the trailing optional args/kwargs pair. Both are
// omitted only when both are absent; if kwargs is present an absent args is
// sent as an empty list so the positions stay fixed.
func appendPayload(list List, args List, kwargs Dict) List {
    if kwargs != nil {
        if args == nil {
            args = List{}
        }
        return append(list, args, kwargs)
    }
    if args != nil {
        return append(list, args)
    }
    return list
}

// Hello opens the handshake: [HELLO, Realm|uri, Details|dict]
type Hello struct {
    Realm   URI
    Details Dict
}

func (*Hello) MessageType() Type { return HELLO }
func (m *Hello) encode() List    { return List{HELLO, m.Realm, orEmpty(m.Details)} }

// Welcome completes the handshake: [WELCOME, Session|id, Details|dict]
type Welcome struct {
    SessionID ID
    Details   Dict
}

func (*Welcome) MessageType() Type { return WELCOME }
func (m *Welcome) encode() List    { return List{WELCOME, m.SessionID, orEmpty(m.Details)} }

// Abort rejects the handshake or kills the session:
// [ABORT, Details|dict, Reason|uri]
type Abort struct {
    Details Dict
    Reason  URI
}

func (*Abort) MessageType() Type { return ABORT }
func (m *Abort) encode() List    { return List{ABORT, orEmpty(m.Details), m.Reason} }

// Challenge asks the client to authenticate:
// [CHALLENGE, AuthMethod|string, Extra|dict]
type Challenge struct {
    AuthMethod string
    Extra      Dict
}

func (*Challenge) MessageType() Type { return CHALLENGE }
func (m *Challenge) encode() List    { return List{CHALLENGE, m.AuthMethod, orEmpty(m.Extra)} }

// Authenticate answers a Challenge: [AUTHENTICATE, Signature|string, Extra|dict]
type Authenticate struct {
    Signature string
    Extra     Dict
}

func (*Authenticate) MessageType() Type { return AUTHENTICATE }
func (m *Authenticate) encode() List    { return List{AUTHENTICATE, m.Signature, orEmpty(m.Extra)} }

// Goodbye closes an established session: [GOODBYE, Details|dict, Reason|uri]
type Goodbye struct {
    Details Dict
    Reason  URI
}

func (*Goodbye) MessageType() Type { return GOODBYE }
func (m *Goodbye) encode() List    { return List{GOODBYE, orEmpty(m.Details), m.Reason} }

// Error reports a failed request:
// [ERROR, ErrType|int, Request|id, Details|dict, Error|uri, Args|list?, Kwargs|dict?]
type Error struct {
    ErrType Type // message type of the request that failed
    Request ID
    Details Dict
    Error   URI
    Args    List
    Kwargs  Dict
}

func (*Error) MessageType() Type { return ERROR }
func (m *Error) encode() List {
    return appendPayload(List{ERROR, m.ErrType, m.Request, orEmpty(m.Details), m.Error}, m.Args, m.Kwargs)
}

// Publish: [PUBLISH, Request|id, Options|dict, Topic|uri, Args|list?, Kwargs|dict?]
type Publish struct {
    Request ID
    Options Dict
    Topic   URI
    Args    List
    Kwargs  Dict
}

func (*Publish) MessageType() Type { return PUBLISH }
func (m *Publish) encode() List {
    return appendPayload(List{PUBLISH, m.Request, orEmpty(m.Options), m.Topic}, m.Args, m.Kwargs)
}

// Published acknowledges a publish: [PUBLISHED, Request|id, Publication|id]
type Published struct {
    Request     ID
    Publication ID
}

func (*Published) MessageType() Type { return PUBLISHED }
func (m *Published) encode() List    { return List{PUBLISHED, m.Request, m.Publication} }

// Subscribe: [SUBSCRIBE, Request|id, Options|dict, Topic|uri]
type Subscribe struct {
    Request ID
    Options Dict
    Topic   URI
}

func (*Subscribe) MessageType() Type { return SUBSCRIBE }
func (m *Subscribe) encode() List    { return List{SUBSCRIBE, m.Request, orEmpty(m.Options), m.Topic} }

// Subscribed: [SUBSCRIBED, Request|id, Subscription|id]
type Subscribed struct {
    Request      ID
    Subscription ID
}

func (*Subscribed) MessageType() Type { return SUBSCRIBED }
func (m *Subscribed) encode() List    { return List{SUBSCRIBED, m.Request, m.Subscription} }

// Unsubscribe: [UNSUBSCRIBE, Request|id, Subscription|id]
type Unsubscribe struct {
    Request      ID
    Subscription ID
}

func (*Unsubscribe) MessageType() Type { return UNSUBSCRIBE }
func (m *Unsubscribe) encode() List    { return List{UNSUBSCRIBE, m.Request, m.Subscription} }

// Unsubscribed: [UNSUBSCRIBED, Request|id]
type Unsubscribed struct {
    Request ID
}

func (*Unsubscribed) MessageType() Type { return UNSUBSCRIBED }
func (m *Unsubscribed) encode() List    { return List{UNSUBSCRIBED, m.Request} }

// Event delivers a publication to a subscriber:
// [EVENT, Subscription|id, Publication|id, Details|dict, Args|list?, Kwargs|dict?]
type Event struct {
    Subscription ID
    Publication  ID
    Details      Dict
    Args         List
    Kwargs       Dict
}

func (*Event) MessageType() Type { return EVENT }
func (m *Event) encode() List {
    return appendPayload(List{EVENT, m.Subscription, m.Publication, orEmpty(m.Details)}, m.Args, m.Kwargs)
}

// Call: [CALL, Request|id, Options|dict, Procedure|uri, Args|list?, Kwargs|dict?]
type Call struct {
    Request   ID
    Options   Dict
    Procedure URI
    Args      List
    Kwargs    Dict
}

func (*Call) MessageType() Type { return CALL }
func (m *Call) encode() List {
    return appendPayload(List{CALL, m.Request, orEmpty(m.Options), m.Procedure}, m.Args, m.Kwargs)
}

// Cancel asks the router to cancel an outstanding call:
// [CANCEL, Request|id, Options|dict]
type Cancel struct {
    Request ID
    Options Dict
}

func (*Cancel) MessageType() Type { return CANCEL }
func (m *Cancel) encode() List    { return List{CANCEL, m.Request, orEmpty(m.Options)} }

// Result carries a call result, possibly an intermediate one when
// Details["progress"] is true:
// [RESULT, Request|id, Details|dict, Args|list?, Kwargs|dict?]
type Result struct {
    Request ID
    Details Dict
    Args    List
    Kwargs  Dict
}

func (*Result) MessageType() Type { return RESULT }
func (m *Result) encode() List {
    return appendPayload(List{RESULT, m.Request, orEmpty(m.Details)}, m.Args, m.Kwargs)
}

// Progressive reports whether this result is an intermediate one.
func (m *Result) Progressive() bool {
    p, _ := m.Details["progress"].(bool)
    return p
}

// Register: [REGISTER, Request|id, Options|dict, Procedure|uri]
type Register struct {
    Request   ID
    Options   Dict
    Procedure URI
}

func (*Register) MessageType() Type { return REGISTER }
func (m *Register) encode() List    { return List{REGISTER, m.Request, orEmpty(m.Options), m.Procedure} }

// Registered: [REGISTERED, Request|id, Registration|id]
type Registered struct {
    Request      ID
    Registration ID
}

func (*Registered) MessageType() Type { return REGISTERED }
func (m *Registered) encode() List    { return List{REGISTERED, m.Request, m.Registration} }

// Unregister: [UNREGISTER, Request|id, Registration|id]
type Unregister struct {
    Request      ID
    Registration ID
}

func (*Unregister) MessageType() Type { return UNREGISTER }
func (m *Unregister) encode() List    { return List{UNREGISTER, m.Request, m.Registration} }

// Unregistered: [UNREGISTERED, Request|id]
type Unregistered struct {
    Request ID
}

func (*Unregistered) MessageType() Type { return UNREGISTERED }
func (m *Unregistered) encode() List    { return List{UNREGISTERED, m.Request} }

// Invocation asks a callee to run a registered procedure:
// [INVOCATION, Request|id, Registration|id, Details|dict, Args|list?, Kwargs|dict?]
type Invocation struct {
    Request      ID
    Registration ID
    Details      Dict
    Args         List
    Kwargs       Dict
}

func (*Invocation) MessageType() Type { return INVOCATION }
func (m *Invocation) encode() List {
    return appendPayload(List{INVOCATION, m.Request, m.Registration, orEmpty(m.Details)}, m.Args, m.Kwargs)
}

// Interrupt asks a callee to cancel a running invocation:
// [INTERRUPT, Request|id, Options|dict]
type Interrupt struct {
    Request ID
    Options Dict
}

func (*Interrupt) MessageType() Type { return INTERRUPT }
func (m *Interrupt) encode() List    { return List{INTERRUPT, m.Request, orEmpty(m.Options)} }

// Yield answers an Invocation, possibly an intermediate answer when
// Options["progress"] is true:
// [YIELD, Request|id, Options|dict, Args|list?, Kwargs|dict?]
type Yield struct {
    Request ID
    Options Dict
    Args    List
    Kwargs  Dict
}

func (*Yield) MessageType() Type { return YIELD }
func (m *Yield) encode() List {
    return appendPayload(List{YIELD, m.Request, orEmpty(m.Options)}, m.Args, m.Kwargs)
}

// Encode converts a message to its generic wire list: the type code followed
// by the variant's fields in declared order.
func Encode(m Message) List { return m.encode() }
