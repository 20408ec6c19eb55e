// Package cache provides the store behind cached platform calls, with an
// in-memory backend for single-process use and a SQLite backend for
// deployments that want the cache to survive restarts. The Janitor enforces
// retention on a cron schedule; the cache itself has no expiry policy.
package cache
