// Package catalog assembles the detail and list views that sit beside search.
//
// Service.Game asks every enabled source for its view of one title and
// reconciles them: the primary source wins each headline field, and the
// first other source with a value fills any gap. Popular and Recent read
// curated lists from the primary source, moving down the priority order
// when it fails. FilterSources applies a reader's source preferences to a
// detail view.
package catalog
