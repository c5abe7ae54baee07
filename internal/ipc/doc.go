// Package ipc provides JSON-RPC over a Unix domain socket between the
// numcheck CLI and the numcheckd daemon.
package ipc
