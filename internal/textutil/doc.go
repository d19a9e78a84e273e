// Package textutil canonicalizes game titles and scores how well a candidate
// title matches a search query.
//
// Normalize folds a display title into lowercase ASCII alphanumerics with
// Roman numerals I through XIII rewritten as digits and "&" spelled "and", so
// "Diablo IV" and "diablo 4" compare equal. Normalized names are only ever
// used for comparison, never for display.
//
// Score assigns one of a fixed set of relevance tiers (100, 90, 85, 70, 60, 0)
// to a query/candidate pair after normalizing both sides.
package textutil
