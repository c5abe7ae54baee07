// Package main hosts the numcheck CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the numcheckd daemon: status and session inspection, pairing
// logins, verification jobs, appeals, history and access management. It
// centralizes configuration resolution and socket discovery so subcommands
// can focus on user experience instead of wiring.
package main
