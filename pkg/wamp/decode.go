package wamp

// Decode converts a generic wire list back into a typed message. The leading
// element selects the variant; the remaining elements must match the
// variant's arity and field types exactly. Decoding never partially
// succeeds: any structural mismatch fails the whole message with
// *InvalidMessageError.
func Decode(list List) (Message, error) {
    if len(list) == 0 {
        return nil, invalidf("empty message list")
    }
    code, ok := asInt(list[0])
    if !ok {
        return nil, invalidf("message type code is %T, not an integer", list[0])
    }
    build, ok := decoders[Type(code)]
    if !ok {
        return nil, invalidf("unknown message type code %d", code)
    }
    return build(&fields{typ: Type(code), items: list[1:]})
}

var decoders = map[Type]func(*fields) (Message, error){
    HELLO: func(f *fields) (Message, error) {
        m := &Hello{}
        var err error
        if m.Realm, err = f.uri("realm"); err != nil {
            return nil, err
        }
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    WELCOME: func(f *fields) (Message, error) {
        m := &Welcome{}
        var err error
        if m.SessionID, err = f.id("session"); err != nil {
            return nil, err
        }
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    ABORT: func(f *fields) (Message, error) {
        m := &Abort{}
        var err error
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        if m.Reason, err = f.uri("reason"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    CHALLENGE: func(f *fields) (Message, error) {
        m := &Challenge{}
        var err error
        if m.AuthMethod, err = f.str("authmethod"); err != nil {
            return nil, err
        }
        if m.Extra, err = f.dict("extra"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    AUTHENTICATE: func(f *fields) (Message, error) {
        m := &Authenticate{}
        var err error
        if m.Signature, err = f.str("signature"); err != nil {
            return nil, err
        }
        if m.Extra, err = f.dict("extra"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    GOODBYE: func(f *fields) (Message, error) {
        m := &Goodbye{}
        var err error
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        if m.Reason, err = f.uri("reason"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    ERROR: func(f *fields) (Message, error) {
        m := &Error{}
        var err error
        if m.ErrType, err = f.typeCode("request type"); err != nil {
            return nil, err
        }
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        if m.Error, err = f.uri("error"); err != nil {
            return nil, err
        }
        if m.Args, m.Kwargs, err = f.payload(); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    PUBLISH: func(f *fields) (Message, error) {
        m := &Publish{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Options, err = f.dict("options"); err != nil {
            return nil, err
        }
        if m.Topic, err = f.uri("topic"); err != nil {
            return nil, err
        }
        if m.Args, m.Kwargs, err = f.payload(); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    PUBLISHED: func(f *fields) (Message, error) {
        m := &Published{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Publication, err = f.id("publication"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    SUBSCRIBE: func(f *fields) (Message, error) {
        m := &Subscribe{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Options, err = f.dict("options"); err != nil {
            return nil, err
        }
        if m.Topic, err = f.uri("topic"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    SUBSCRIBED: func(f *fields) (Message, error) {
        m := &Subscribed{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Subscription, err = f.id("subscription"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    UNSUBSCRIBE: func(f *fields) (Message, error) {
        m := &Unsubscribe{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Subscription, err = f.id("subscription"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    UNSUBSCRIBED: func(f *fields) (Message, error) {
        m := &Unsubscribed{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    EVENT: func(f *fields) (Message, error) {
        m := &Event{}
        var err error
        if m.Subscription, err = f.id("subscription"); err != nil {
            return nil, err
        }
        if m.Publication, err = f.id("publication"); err != nil {
            return nil, err
        }
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        if m.Args, m.Kwargs, err = f.payload(); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    CALL: func(f *fields) (Message, error) {
        m := &Call{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Options, err = f.dict("options"); err != nil {
            return nil, err
        }
        if m.Procedure, err = f.uri("procedure"); err != nil {
            return nil, err
        }
        if m.Args, m.Kwargs, err = f.payload(); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    CANCEL: func(f *fields) (Message, error) {
        m := &Cancel{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Options, err = f.dict("options"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    RESULT: func(f *fields) (Message, error) {
        m := &Result{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        if m.Args, m.Kwargs, err = f.payload(); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    REGISTER: func(f *fields) (Message, error) {
        m := &Register{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Options, err = f.dict("options"); err != nil {
            return nil, err
        }
        if m.Procedure, err = f.uri("procedure"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    REGISTERED: func(f *fields) (Message, error) {
        m := &Registered{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Registration, err = f.id("registration"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    UNREGISTER: func(f *fields) (Message, error) {
        m := &Unregister{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Registration, err = f.id("registration"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    UNREGISTERED: func(f *fields) (Message, error) {
        m := &Unregistered{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    INVOCATION: func(f *fields) (Message, error) {
        m := &Invocation{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Registration, err = f.id("registration"); err != nil {
            return nil, err
        }
        if m.Details, err = f.dict("details"); err != nil {
            return nil, err
        }
        if m.Args, m.Kwargs, err = f.payload(); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    INTERRUPT: func(f *fields) (Message, error) {
        m := &Interrupt{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Options, err = f.dict("options"); err != nil {
            return nil, err
        }
        return m, f.done()
    },
    YIELD: func(f *fields) (Message, error) {
        m := &Yield{}
        var err error
        if m.Request, err = f.id("request"); err != nil {
            return nil, err
        }
        if m.Options, err = f.dict("options"); err != nil {
            return nil, err
        }
        if m.Args, m.Kwargs, err = f.payload(); err != nil {
            return nil, err
        }
        return m, f.done()
    },
}

// fields is a cursor over the elements following the type code.
type fields struct {
    typ   Type
    items List
    pos   int
}

func (f *fields) next(name string) (any, error) {
    if f.pos >= len(f.items) {
        return nil, invalidf("%s: missing %s field", f.typ, name)
    }
    v := f.items[f.pos]
    f.pos++
    return v, nil
}

func (f *fields) id(name string) (ID, error) {
    v, err := f.next(name)
    if err != nil {
        return 0, err
    }
    id, ok := asID(v)
    if !ok {
        return 0, invalidf("%s: %s is not a valid id: %v", f.typ, name, v)
    }
    return id, nil
}

func (f *fields) typeCode(name string) (Type, error) {
    v, err := f.next(name)
    if err != nil {
        return 0, err
    }
    n, ok := asInt(v)
    if !ok {
        return 0, invalidf("%s: %s is not an integer: %v", f.typ, name, v)
    }
    return Type(n), nil
}

func (f *fields) uri(name string) (URI, error) {
    v, err := f.next(name)
    if err != nil {
        return "", err
    }
    u, ok := asURI(v)
    if !ok {
        return "", invalidf("%s: %s is not a valid uri: %v", f.typ, name, v)
    }
    return u, nil
}

func (f *fields) str(name string) (string, error) {
    v, err := f.next(name)
    if err != nil {
        return "", err
    }
    s, ok := asString(v)
    if !ok {
        return "", invalidf("%s: %s is not a string: %v", f.typ, name, v)
    }
    return s, nil
}

func (f *fields) dict(name string) (Dict, error) {
    v, err := f.next(name)
    if err != nil {
        return nil, err
    }
    d, ok := asDict(v)
    if !ok {
        return nil, invalidf("%s: %s is not a dict: %v", f.typ, name, v)
    }
    return d, nil
}

// payload consumes the trailing optional args/kwargs pair.
func (f *fields) payload() (List, Dict, error) {
    if f.pos >= len(f.items) {
        return nil, nil, nil
    }
    v := f.items[f.pos]
    args, ok := asList(v)
    if !ok {
        return nil, nil, invalidf("%s: args is not a list: %v", f.typ, v)
    }
    f.pos++

    if f.pos >= len(f.items) {
        return args, nil, nil
    }
    kwargs, ok := asDict(f.items[f.pos])
    if !ok {
        return nil, nil, invalidf("%s: kwargs is not a dict: %v", f.typ, f.items[f.pos])
    }
    f.pos++
    return args, kwargs, nil
}

func (f *fields) done() error {
    if f.pos != len(f.items) {
        return invalidf("%s: %d trailing elements", f.typ, len(f.items)-f.pos)
    }
    return nil
}
