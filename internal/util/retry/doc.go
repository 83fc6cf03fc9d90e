// Package retry provides backoff helpers for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable max
// attempts, initial delay, and maximum delay. It is used around cloud API
// calls. [Poll] waits on a condition at a fixed interval and is used to
// drain nodegroups before a cluster destroy.
package retry
