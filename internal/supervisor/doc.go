// Package supervisor manages the single live connection to the messaging
// network on top of a pool of stored login sessions. Transient drops are
// retried in place; permanent logouts evict the session and fail over to the
// next stored one until the pool is exhausted.
package supervisor
