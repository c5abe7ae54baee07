// Package daemon wires the agent together: configuration, session registry,
// connection supervisor, verification runner, stores and notifications. It
// enforces single-instance execution with a file lock and exposes the
// operational surface the IPC server serves.
package daemon
