package wamp

// Predefined protocol URIs.
const (
    // Interaction
    ErrInvalidURI              = URI("wamp.error.invalid_uri")
    ErrNoSuchProcedure         = URI("wamp.error.no_such_procedure")
    ErrProcedureAlreadyExists  = URI("wamp.error.procedure_already_exists")
    ErrNoSuchRegistration      = URI("wamp.error.no_such_registration")
    ErrNoSuchSubscription      = URI("wamp.error.no_such_subscription")
    ErrInvalidArgument         = URI("wamp.error.invalid_argument")
    ErrProtocolViolation       = URI("wamp.error.protocol_violation")

    // Session close
    CloseSystemShutdown = URI("wamp.close.system_shutdown")
    CloseRealm          = URI("wamp.close.close_realm")
    CloseGoodbyeAndOut  = URI("wamp.close.goodbye_and_out")

    // Authorization
    ErrNotAuthorized       = URI("wamp.error.not_authorized")
    ErrAuthorizationFailed = URI("wamp.error.authorization_failed")
    ErrNoSuchRealm         = URI("wamp.error.no_such_realm")
    ErrNoSuchRole          = URI("wamp.error.no_such_role")

    // Advanced profile
    ErrCanceled         = URI("wamp.error.canceled")
    ErrOptionNotAllowed = URI("wamp.error.option_not_allowed")
    ErrNoEligibleCallee = URI("wamp.error.no_eligible_callee")
    ErrNetworkFailure   = URI("wamp.error.network_failure")
    ErrRuntimeError     = URI("wamp.error.runtime_error")
)
