package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/feedworks/refinery/app/database"
)

type fakeSubscriber struct {
	err    error
	topics []string
	ids    []int64
}

func (s *fakeSubscriber) Subscribe(ctx context.Context, feedID int64, topic string) error {
	if s.err != nil {
		return s.err
	}
	s.ids = append(s.ids, feedID)
	s.topics = append(s.topics, topic)
	return nil
}

func TestWebSubSubscribe(t *testing.T) {
	feeds := newFakeFeedRepo(&database.Feed{ID: 5, FeedURL: "https://example.com/feed.xml"})
	subscriber := &fakeSubscriber{}
	job := NewWebSubSubscribeJob(feeds, subscriber)

	if err := job.Execute(context.Background(), []any{int64(5)}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(subscriber.ids) != 1 || subscriber.ids[0] != 5 {
		t.Errorf("Expected subscribe for feed 5, got %v", subscriber.ids)
	}
	if subscriber.topics[0] != "https://example.com/feed.xml" {
		t.Errorf("Expected feed URL as topic, got %s", subscriber.topics[0])
	}
}

func TestWebSubSubscribeMissingFeed(t *testing.T) {
	subscriber := &fakeSubscriber{}
	job := NewWebSubSubscribeJob(newFakeFeedRepo(), subscriber)

	if err := job.Execute(context.Background(), []any{int64(404)}); err != nil {
		t.Errorf("Expected deleted feed to be a no-op, got: %v", err)
	}
	if len(subscriber.ids) != 0 {
		t.Error("Expected no subscribe for a missing feed")
	}
}

func TestWebSubSubscribeHubErrorPropagates(t *testing.T) {
	feeds := newFakeFeedRepo(&database.Feed{ID: 5, FeedURL: "https://example.com/feed.xml"})
	job := NewWebSubSubscribeJob(feeds, &fakeSubscriber{err: errors.New("hub down")})

	if err := job.Execute(context.Background(), []any{int64(5)}); err == nil {
		t.Error("Expected hub error to propagate")
	}
}

func TestWebSubSubscribeDecodesFloatID(t *testing.T) {
	// IDs decoded from JSON arrive as float64.
	feeds := newFakeFeedRepo(&database.Feed{ID: 5, FeedURL: "https://example.com/feed.xml"})
	subscriber := &fakeSubscriber{}
	job := NewWebSubSubscribeJob(feeds, subscriber)

	if err := job.Execute(context.Background(), []any{float64(5)}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(subscriber.ids) != 1 {
		t.Error("Expected subscribe from a float-typed id")
	}
}
