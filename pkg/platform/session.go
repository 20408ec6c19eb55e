package platform

// Session is the immutable request-scoped identity a call runs under. It is
// built once by the authentication middleware and passed by value through
// every layer; callees never mutate it and communicate derived data through
// return values instead.
type Session struct {
	// Token is the caller's bearer token, forwarded to the platform
	// backends.
	Token string

	// OrganizationID is the organization the call is scoped to.
	OrganizationID string

	// EnvironmentID is the environment the call is scoped to. It may be
	// empty for organization-scoped operations.
	EnvironmentID string
}

// WithEnvironment returns a copy of the session scoped to the given
// environment.
func (s Session) WithEnvironment(environmentID string) Session {
	s.EnvironmentID = environmentID
	return s
}
