// Package compat decides whether two source records plausibly describe the
// same real-world release.
//
// Dates are compared with a tolerance window (31 days by default) or, for the
// stricter path, by calendar day. Platforms are mapped into families through
// an ordered FamilyTable of substring rules; two platform lists are compatible
// when their family sets intersect. When either record lists no platforms the
// date check decides instead.
package compat
