// Package igdb adapts the IGDB v4 API to the sources.Adapter contract.
//
// Requests are Apicalypse query bodies POSTed to /games, authenticated with
// a Twitch app access token from TokenSource. IGDB's game_type maps onto
// game.ReleaseKind, cover thumbnails are upsized to t_cover_big, and the
// three IGDB scores (aggregate, critics, users) become separate ratings in
// the detail view.
package igdb
