// Package preflight provides readiness checks for the sources and paths
// gamelens depends on.
//
// The CLI "gamelens doctor" command runs RunAll and prints one line per
// check. Individual checks (CheckCredentials, CheckDirectoryAccess,
// CheckSource) are exported so commands can reuse them.
//
// Disabled sources are reported as passing with a "Disabled" detail.
package preflight
