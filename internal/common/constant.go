package common

// Header names shared by the HTTP API and its CLI client.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
	ForwardedForHeaderName  = "X-Forwarded-For"
)

// UnknownClientValue is recorded when the caller's address or agent is absent.
const UnknownClientValue = "unknown"
