// Package retry restarts whole provisioning attempts.
//
// A failed attempt is retried after an exponential backoff with jitter:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// with base delays 2s, 4s, 8s ... capped at 60s. The Runner stops after
// MaxAttempts attempts, on success, or when the attempt returns an error
// wrapped with Permanent.
package retry
