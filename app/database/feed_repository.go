package database

import (
	"database/sql"
	"errors"
	"fmt"
)

var _ FeedRepository = (*feedRepository)(nil)

type feedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

const feedColumns = `id, feed_url, site_url, title, host, feed_type, subscriptions_count, settings, created_at, updated_at`

func (r *feedRepository) GetFeed(id int64) (*Feed, error) {
	var feed Feed
	err := r.db.Get(&feed, `
		SELECT `+feedColumns+`
		FROM feeds
		WHERE id = $1
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return &feed, nil
}

func (r *feedRepository) GetFeedByURL(feedURL string) (*Feed, error) {
	var feed Feed
	err := r.db.Get(&feed, `
		SELECT `+feedColumns+`
		FROM feeds
		WHERE feed_url = $1
	`, feedURL)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}

	return &feed, nil
}

func (r *feedRepository) GetFeedsByType(types ...FeedType) ([]Feed, error) {
	if len(types) == 0 {
		return nil, nil
	}

	args := make([]any, len(types))
	placeholders := ""
	for i, t := range types {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args[i] = t
	}

	var feeds []Feed
	err := r.db.Select(&feeds, `
		SELECT `+feedColumns+`
		FROM feeds
		WHERE feed_type IN (`+placeholders+`)
		ORDER BY id
	`, args...)

	if err != nil {
		return nil, fmt.Errorf("failed to get feeds by type: %w", err)
	}

	return feeds, nil
}

// CreateFeed inserts a feed, or returns the existing row when feed_url is
// already taken. feed_url is immutable after creation, so the conflict path
// never rewrites it.
func (r *feedRepository) CreateFeed(feed Feed) (*Feed, error) {
	var created Feed
	err := r.db.Get(&created, `
		INSERT INTO feeds (feed_url, site_url, title, host, feed_type, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (feed_url) DO UPDATE SET updated_at = NOW()
		RETURNING `+feedColumns+`
	`, feed.FeedURL, feed.SiteURL, feed.Title, feed.Host, feed.FeedType, feed.Settings)

	if err != nil {
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}

	return &created, nil
}
