package wamp

// Type is the integer message-type code carried as the first element of
// every wire frame. The values are fixed by the protocol.
type Type int

const (
    HELLO        Type = 1
    WELCOME      Type = 2
    ABORT        Type = 3
    CHALLENGE    Type = 4
    AUTHENTICATE Type = 5
    GOODBYE      Type = 6

    ERROR Type = 8

    PUBLISH   Type = 16
    PUBLISHED Type = 17

    SUBSCRIBE    Type = 32
    SUBSCRIBED   Type = 33
    UNSUBSCRIBE  Type = 34
    UNSUBSCRIBED Type = 35
    EVENT        Type = 36

    CALL   Type = 48
    CANCEL Type = 49
    RESULT Type = 50

    REGISTER     Type = 64
    REGISTERED   Type = 65
    UNREGISTER   Type = 66
    UNREGISTERED Type = 67
    INVOCATION   Type = 68
    INTERRUPT    Type = 69
    YIELD        Type = 70
)

func (t Type) String() string {
    switch t {
    case HELLO:
        return "HELLO"
    case WELCOME:
        return "WELCOME"
    case ABORT:
        return "ABORT"
    case CHALLENGE:
        return "CHALLENGE"
    case AUTHENTICATE:
        return "AUTHENTICATE"
    case GOODBYE:
        return "GOODBYE"
    case ERROR:
        return "ERROR"
    case PUBLISH:
        return "PUBLISH"
    case PUBLISHED:
        return "PUBLISHED"
    case SUBSCRIBE:
        return "SUBSCRIBE"
    case SUBSCRIBED:
        return "SUBSCRIBED"
    case UNSUBSCRIBE:
        return "UNSUBSCRIBE"
    case UNSUBSCRIBED:
        return "UNSUBSCRIBED"
    case EVENT:
        return "EVENT"
    case CALL:
        return "CALL"
    case CANCEL:
        return "CANCEL"
    case RESULT:
        return "RESULT"
    case REGISTER:
        return "REGISTER"
    case REGISTERED:
        return "REGISTERED"
    case UNREGISTER:
        return "UNREGISTER"
    case UNREGISTERED:
        return "UNREGISTERED"
    case INVOCATION:
        return "INVOCATION"
    case INTERRUPT:
        return "INTERRUPT"
    case YIELD:
        return "YIELD"
    default:
        return "UNKNOWN"
    }
}
