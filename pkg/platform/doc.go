// Package platform provides the authenticated call wrapper shared by every
// backend client, the immutable per-request Session, and the closed set of
// typed errors a platform call can produce.
//
// Each backend (API Manager, CloudHub, Hybrid, Core Services, proxy builder)
// gets its own Client carrying the backend's base URL and fixed timeout. A
// failed call maps to exactly one of TimeoutError, UnauthorizedError,
// ForbiddenError, NotFoundError, ConflictError or ServiceError; downstream
// recovery branches match on the variant with errors.As. The wrapper never
// retries; callers own their retry policy.
package platform
