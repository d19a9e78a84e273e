package apicache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Key derives a stable cache key from request parts such as method, URL, and
// body. Parts are separated so ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached body for key when present and unexpired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)
	var body []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT body FROM responses WHERE key = ? AND expires_at > ?",
			key, s.now().UnixMilli(),
		).Scan(&body)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached response: %w", err)
	}
	return body, true, nil
}

// Put stores body under key for ttl, replacing any previous entry. A ttl of
// zero or less disables caching and Put does nothing.
func (s *Store) Put(ctx context.Context, source, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := s.now()
	if body == nil {
		body = []byte{}
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO responses (key, source, body, stored_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET source = excluded.source, body = excluded.body,
		 stored_at = excluded.stored_at, expires_at = excluded.expires_at`,
		key, source, body, now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM responses WHERE expires_at <= ?", s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry, or only those from source when it is non-empty.
func (s *Store) Clear(ctx context.Context, source string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if source == "" {
		res, err = s.execWithRetry(ctx, "DELETE FROM responses")
	} else {
		res, err = s.execWithRetry(ctx, "DELETE FROM responses WHERE source = ?", source)
	}
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return res.RowsAffected()
}

// SourceStats summarizes the entries one source contributed.
type SourceStats struct {
	Source  string `json:"source"`
	Entries int    `json:"entries"`
	Expired int    `json:"expired"`
	Bytes   int64  `json:"bytes"`
}

// Stats summarizes the cache contents.
type Stats struct {
	Path    string        `json:"path"`
	Entries int           `json:"entries"`
	Expired int           `json:"expired"`
	Bytes   int64         `json:"bytes"`
	Sources []SourceStats `json:"sources"`
}

// Stats reports entry counts and payload sizes per source, ordered by name.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Path: s.path, Sources: []SourceStats{}}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(1), SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), COALESCE(SUM(LENGTH(body)), 0)
		 FROM responses GROUP BY source ORDER BY source`,
		s.now().UnixMilli(),
	)
	if err != nil {
		return stats, fmt.Errorf("query cache stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row SourceStats
		if err := rows.Scan(&row.Source, &row.Entries, &row.Expired, &row.Bytes); err != nil {
			return stats, fmt.Errorf("scan cache stats: %w", err)
		}
		stats.Entries += row.Entries
		stats.Expired += row.Expired
		stats.Bytes += row.Bytes
		stats.Sources = append(stats.Sources, row)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate cache stats: %w", err)
	}
	return stats, nil
}
