package jobs

import (
	"context"
	"errors"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/websub"
)

// WebSubSubscribeJob asks the push hub to start notifying us about a feed.
// Fire and forget: the hub confirms later through the verify endpoint.
//
// Payload: (feed id).
type WebSubSubscribeJob struct {
	feeds      database.FeedRepository
	subscriber websub.Subscriber
}

func NewWebSubSubscribeJob(feeds database.FeedRepository, subscriber websub.Subscriber) *WebSubSubscribeJob {
	return &WebSubSubscribeJob{
		feeds:      feeds,
		subscriber: subscriber,
	}
}

func (j *WebSubSubscribeJob) Execute(ctx context.Context, args []any) error {
	feedID, err := argInt64(args, 0)
	if err != nil {
		return err
	}

	feed, err := j.feeds.GetFeed(feedID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return j.subscriber.Subscribe(ctx, feed.ID, feed.FeedURL)
}
