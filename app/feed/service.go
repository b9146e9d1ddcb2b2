// Package feed handles feed lifecycle concerns: creation with host
// derivation, tagging, and the hooks fired once a feed exists.
package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/feedfinder"
	"github.com/feedworks/refinery/app/queue"
	"github.com/feedworks/refinery/app/urlutil"
)

type Service struct {
	feeds     database.FeedRepository
	taggings  database.TaggingRepository
	submitter queue.Submitter
}

func NewService(feeds database.FeedRepository, taggings database.TaggingRepository,
	submitter queue.Submitter) *Service {
	return &Service{
		feeds:     feeds,
		taggings:  taggings,
		submitter: submitter,
	}
}

// Create derives the feed's host from its site URL (best effort; failure is
// logged, not fatal), inserts the row, and triggers the push subscribe for
// the new feed. The subscribe submit happens only once the row is durably
// committed.
func (s *Service) Create(ctx context.Context, feed database.Feed) (*database.Feed, error) {
	if feed.Host == nil {
		if host, err := urlutil.Host(feed.SiteURL); err != nil {
			slog.Info("Failed to derive host for feed", "site_url", feed.SiteURL, "error", err)
		} else {
			feed.Host = &host
		}
	}

	created, err := s.feeds.CreateFeed(feed)
	if err != nil {
		return nil, err
	}

	err = s.submitter.Submit(ctx, queue.Job{
		Kind:  queue.KindWebSubSubscribe,
		Queue: queue.QueueDefault,
		Args:  []any{created.ID},
		Retry: false,
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetOrCreate returns the existing feed for the candidate's URL, or creates
// one. Creation hooks fire only for genuinely new feeds.
func (s *Service) GetOrCreate(ctx context.Context, candidate feedfinder.Candidate) (*database.Feed, error) {
	existing, err := s.feeds.GetFeedByURL(candidate.FeedURL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	return s.Create(ctx, database.Feed{
		FeedURL:  candidate.FeedURL,
		SiteURL:  candidate.SiteURL,
		Title:    candidate.Title,
		FeedType: candidate.FeedType,
	})
}

// Tag applies the comma-separated tag names to the feed for the user.
func (s *Service) Tag(feedID, userID int64, names string, deleteExisting bool) error {
	return s.taggings.ApplyTag(feedID, userID, names, deleteExisting)
}
