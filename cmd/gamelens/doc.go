// Package main hosts the gamelens CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the guarded
// source adapters around a shared response cache, and hands requests to the
// search orchestrator and the catalog service. Every invocation runs inside
// its own request scope so repeated lookups within one command share work.
//
// Keep this package lean: add behavior to the internal packages first, then
// surface it through a command or flag here.
package main
