package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/feedfinder"
	"github.com/feedworks/refinery/app/queue"
)

type stubFeedRepo struct {
	feeds   map[string]*database.Feed
	nextID  int64
	created []database.Feed
}

func newStubFeedRepo() *stubFeedRepo {
	return &stubFeedRepo{feeds: make(map[string]*database.Feed), nextID: 100}
}

func (r *stubFeedRepo) GetFeed(id int64) (*database.Feed, error) {
	for _, f := range r.feeds {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *stubFeedRepo) GetFeedByURL(feedURL string) (*database.Feed, error) {
	f, ok := r.feeds[feedURL]
	if !ok {
		return nil, database.ErrNotFound
	}
	return f, nil
}

func (r *stubFeedRepo) GetFeedsByType(types ...database.FeedType) ([]database.Feed, error) {
	return nil, nil
}

func (r *stubFeedRepo) CreateFeed(feed database.Feed) (*database.Feed, error) {
	if existing, ok := r.feeds[feed.FeedURL]; ok {
		return existing, nil
	}
	r.nextID++
	feed.ID = r.nextID
	r.feeds[feed.FeedURL] = &feed
	r.created = append(r.created, feed)
	return &feed, nil
}

type stubTaggingRepo struct {
	applied int
	names   string
}

func (r *stubTaggingRepo) ApplyTag(feedID, userID int64, names string, deleteExisting bool) error {
	r.applied++
	r.names = names
	return nil
}

type stubSubmitter struct {
	jobs []queue.Job
	err  error
}

func (s *stubSubmitter) Submit(ctx context.Context, job queue.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func TestCreateDerivesHost(t *testing.T) {
	feeds := newStubFeedRepo()
	service := NewService(feeds, &stubTaggingRepo{}, &stubSubmitter{})

	created, err := service.Create(context.Background(), database.Feed{
		FeedURL: "https://example.com/feed.xml",
		SiteURL: "https://Example.COM/blog",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if created.Host == nil || *created.Host != "example.com" {
		t.Errorf("Expected derived host 'example.com', got %v", created.Host)
	}
}

func TestCreateHostDerivationIsBestEffort(t *testing.T) {
	feeds := newStubFeedRepo()
	service := NewService(feeds, &stubTaggingRepo{}, &stubSubmitter{})

	created, err := service.Create(context.Background(), database.Feed{
		FeedURL: "https://example.com/feed.xml",
		SiteURL: "",
	})
	if err != nil {
		t.Fatalf("Expected creation to survive a bad site URL, got: %v", err)
	}
	if created.Host != nil {
		t.Errorf("Expected no host from an unusable site URL, got %v", created.Host)
	}
}

func TestCreateTriggersPushSubscribe(t *testing.T) {
	feeds := newStubFeedRepo()
	submitter := &stubSubmitter{}
	service := NewService(feeds, &stubTaggingRepo{}, submitter)

	created, err := service.Create(context.Background(), database.Feed{
		FeedURL: "https://example.com/feed.xml",
		SiteURL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(submitter.jobs) != 1 {
		t.Fatalf("Expected 1 submit, got %d", len(submitter.jobs))
	}
	job := submitter.jobs[0]
	if job.Kind != queue.KindWebSubSubscribe || job.Queue != queue.QueueDefault {
		t.Errorf("Unexpected routing: %s on %s", job.Kind, job.Queue)
	}
	if job.Args[0] != created.ID {
		t.Errorf("Expected the created feed id in args, got %v", job.Args)
	}
}

func TestCreateSubmitErrorPropagates(t *testing.T) {
	feeds := newStubFeedRepo()
	submitter := &stubSubmitter{err: errors.New("queue full")}
	service := NewService(feeds, &stubTaggingRepo{}, submitter)

	_, err := service.Create(context.Background(), database.Feed{
		FeedURL: "https://example.com/feed.xml",
		SiteURL: "https://example.com",
	})
	if err == nil {
		t.Error("Expected submit failure to propagate")
	}
}

func TestGetOrCreateReturnsExisting(t *testing.T) {
	feeds := newStubFeedRepo()
	feeds.feeds["https://example.com/feed.xml"] = &database.Feed{
		ID: 55, FeedURL: "https://example.com/feed.xml",
	}
	submitter := &stubSubmitter{}
	service := NewService(feeds, &stubTaggingRepo{}, submitter)

	got, err := service.GetOrCreate(context.Background(), feedfinder.Candidate{
		FeedURL: "https://example.com/feed.xml",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got.ID != 55 {
		t.Errorf("Expected the existing feed, got id %d", got.ID)
	}
	if len(feeds.created) != 0 {
		t.Error("Expected no feed creation for a known URL")
	}
	if len(submitter.jobs) != 0 {
		t.Error("Expected no creation hooks for an existing feed")
	}
}

func TestGetOrCreateCreatesNew(t *testing.T) {
	feeds := newStubFeedRepo()
	submitter := &stubSubmitter{}
	service := NewService(feeds, &stubTaggingRepo{}, submitter)

	got, err := service.GetOrCreate(context.Background(), feedfinder.Candidate{
		FeedURL:  "https://example.com/feed.xml",
		SiteURL:  "https://example.com",
		Title:    "Example Blog",
		FeedType: database.FeedTypeXML,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got.Title != "Example Blog" {
		t.Errorf("Unexpected title: %s", got.Title)
	}
	if len(feeds.created) != 1 {
		t.Errorf("Expected 1 feed created, got %d", len(feeds.created))
	}
	if len(submitter.jobs) != 1 {
		t.Error("Expected creation hooks for a new feed")
	}
}

func TestTagDelegates(t *testing.T) {
	taggings := &stubTaggingRepo{}
	service := NewService(newStubFeedRepo(), taggings, &stubSubmitter{})

	if err := service.Tag(5, 7, "Tech, News", false); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if taggings.applied != 1 || taggings.names != "Tech, News" {
		t.Errorf("Expected tag application recorded, got %d (%s)", taggings.applied, taggings.names)
	}
}
