package client

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/base64"
    "fmt"
    "sort"

    "golang.org/x/crypto/pbkdf2"

    "wampio/pkg/wamp"
)

// AuthMethod computes the response to one kind of authentication challenge.
type AuthMethod interface {
    // Name is the method identifier offered during Hello negotiation.
    Name() string
    // Authenticate produces the Authenticate message for a Challenge.
    Authenticate(challenge *wamp.Challenge) (*wamp.Authenticate, error)
}

// Keyring holds the registered auth methods for one join attempt. The
// router picks one of the offered methods and challenges with it; the
// keyring answers with the matching method exactly once.
type Keyring struct {
    methods   map[string]AuthMethod
    authID    string
    authExtra wamp.Dict
}

// NewKeyring builds a keyring. Registering the same method name twice is an
// error.
func NewKeyring(authID string, methods ...AuthMethod) (*Keyring, error) {
    byName := make(map[string]AuthMethod, len(methods))
    for _, m := range methods {
        if _, dup := byName[m.Name()]; dup {
            return nil, fmt.Errorf("auth method %q registered twice", m.Name())
        }
        byName[m.Name()] = m
    }
    return &Keyring{methods: byName, authID: authID}, nil
}

// SetAuthExtra attaches extras sent as authextra in the Hello details.
func (k *Keyring) SetAuthExtra(extra wamp.Dict) { k.authExtra = extra }

// MethodNames lists the registered method names, sorted for deterministic
// Hello details.
func (k *Keyring) MethodNames() []string {
    names := make([]string, 0, len(k.methods))
    for name := range k.methods {
        names = append(names, name)
    }
    sort.Strings(names)
    return names
}

func (k *Keyring) AuthID() string       { return k.authID }
func (k *Keyring) AuthExtra() wamp.Dict { return k.authExtra }

// answer resolves a Challenge against the keyring.
func (k *Keyring) answer(challenge *wamp.Challenge) (*wamp.Authenticate, error) {
    method, ok := k.methods[challenge.AuthMethod]
    if !ok {
        return nil, &wamp.AuthError{Method: challenge.AuthMethod}
    }
    auth, err := method.Authenticate(challenge)
    if err != nil {
        return nil, &wamp.AuthError{Method: challenge.AuthMethod, Err: err}
    }
    return auth, nil
}

// CRAuth implements WAMP-CRA (wampcra): HMAC-SHA256 over the challenge
// string with a shared secret, optionally PBKDF2-derived when the router
// salts the exchange. The secret never travels the wire.
type CRAuth struct {
    Secret string
}

func (CRAuth) Name() string { return "wampcra" }

func (a CRAuth) Authenticate(challenge *wamp.Challenge) (*wamp.Authenticate, error) {
    chStr, ok := wamp.AsString(challenge.Extra["challenge"])
    if !ok {
        return nil, fmt.Errorf("challenge extra carries no challenge string")
    }

    key := []byte(a.Secret)
    if salt, ok := wamp.AsString(challenge.Extra["salt"]); ok {
        keyLen, ok := wamp.AsInt64(challenge.Extra["keylen"])
        if !ok || keyLen <= 0 {
            return nil, fmt.Errorf("salted challenge without valid keylen")
        }
        iters, ok := wamp.AsInt64(challenge.Extra["iterations"])
        if !ok || iters <= 0 {
            return nil, fmt.Errorf("salted challenge without valid iterations")
        }
        derived := pbkdf2.Key([]byte(a.Secret), []byte(salt), int(iters), int(keyLen), sha256.New)
        // routers derive the shared key as the base64 form of the PBKDF2 output
        key = []byte(base64.StdEncoding.EncodeToString(derived))
    }

    mac := hmac.New(sha256.New, key)
    mac.Write([]byte(chStr))
    sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
    return &wamp.Authenticate{Signature: sig, Extra: wamp.Dict{}}, nil
}

// TicketAuth implements ticket authentication: the ticket is presented as
// the signature. The ticket travels the wire; use only over protected
// transports.
type TicketAuth struct {
    Ticket string
}

func (TicketAuth) Name() string { return "ticket" }

func (a TicketAuth) Authenticate(*wamp.Challenge) (*wamp.Authenticate, error) {
    return &wamp.Authenticate{Signature: a.Ticket, Extra: wamp.Dict{}}, nil
}
