package delivery

import (
	"context"
	"fmt"
)

// maxConsecutiveFailures mirrors job/feed_collector.go's auto-disable
// threshold (spec §4.1: a feed/paged-feed source is disabled after 5
// consecutive fetch failures).
const maxConsecutiveFailures = 5

// IncrementFailures records a fetch failure for feedURL and returns the
// resulting consecutive-failure count. Grounded on
// driver/alt_db/feed_link_availability_driver.go's upsert shape, adapted
// to a plain url key since this module has no feed_links table.
func (s *Store) IncrementFailures(ctx context.Context, url, reason string) (int, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	const q = `
		INSERT INTO feed_link_availability (feed_url, is_active, consecutive_failures, last_failure_at, last_failure_reason)
		VALUES ($1, true, 1, now(), $2)
		ON CONFLICT (feed_url) DO UPDATE SET
			consecutive_failures = feed_link_availability.consecutive_failures + 1,
			last_failure_at = now(),
			last_failure_reason = $2
		RETURNING consecutive_failures
	`
	var n int
	if err := s.db.QueryRow(ctx, q, url, reason).Scan(&n); err != nil {
		return 0, fmt.Errorf("delivery: increment failures for %q: %w", url, err)
	}
	return n, nil
}

// ResetFailures clears the consecutive-failure count on a successful fetch.
func (s *Store) ResetFailures(ctx context.Context, url string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = s.db.Exec(ctx, `
		INSERT INTO feed_link_availability (feed_url, consecutive_failures)
		VALUES ($1, 0)
		ON CONFLICT (feed_url) DO UPDATE SET consecutive_failures = 0
	`, url)
	return err
}

// ShouldDisable reports whether consecutive has crossed the auto-disable
// threshold.
func (s *Store) ShouldDisable(consecutive int) bool {
	return consecutive >= maxConsecutiveFailures
}

// Disable marks url's feed as inactive.
func (s *Store) Disable(ctx context.Context, url string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = s.db.Exec(ctx, `
		INSERT INTO feed_link_availability (feed_url, is_active)
		VALUES ($1, false)
		ON CONFLICT (feed_url) DO UPDATE SET is_active = false
	`, url)
	return err
}
