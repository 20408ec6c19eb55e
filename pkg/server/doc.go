// Package server wires the HTTP surface: deployment endpoints, proxy
// artifact download, status endpoints, the metrics scrape endpoint and the
// pass-through redirect for everything the service does not handle itself.
//
// The middleware chain, outermost first, is recovery, request id, logging,
// metrics and bearer authentication. Authentication is skipped for the
// configured anonymous paths and the operational endpoints.
package server
