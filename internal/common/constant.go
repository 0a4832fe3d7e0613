package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// RequestIDHeaderName carries a per-request correlation id.
const RequestIDHeaderName = "X-Request-Id"
