package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/extract"
	"github.com/feedworks/refinery/app/feedfinder"
	"github.com/feedworks/refinery/app/queue"
)

func strptr(s string) *string { return &s }

// fakeSubmitter records submitted jobs.
type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (s *fakeSubmitter) Submit(ctx context.Context, job queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *fakeSubmitter) submitted() []queue.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]queue.Job(nil), s.jobs...)
}

type fakeEntryRepo struct {
	entries        map[int64]*database.Entry
	updatedImages  map[int64]string
	updatedContent map[int64]string
	updatedData    map[int64]database.JSONMap
}

func newFakeEntryRepo(entries ...*database.Entry) *fakeEntryRepo {
	r := &fakeEntryRepo{
		entries:        make(map[int64]*database.Entry),
		updatedImages:  make(map[int64]string),
		updatedContent: make(map[int64]string),
		updatedData:    make(map[int64]database.JSONMap),
	}
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return r
}

func (r *fakeEntryRepo) GetEntry(id int64) (*database.Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return e, nil
}

func (r *fakeEntryRepo) GetEntryByPublicID(publicID string) (*database.Entry, error) {
	for _, e := range r.entries {
		if e.PublicID == publicID {
			return e, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *fakeEntryRepo) UpdateEntryImage(id int64, image string) error {
	r.updatedImages[id] = image
	return nil
}

func (r *fakeEntryRepo) UpdateEntryContent(id int64, content string) error {
	r.updatedContent[id] = content
	return nil
}

func (r *fakeEntryRepo) UpdateEntryData(id int64, data database.JSONMap) error {
	r.updatedData[id] = data
	return nil
}

type fakeFeedRepo struct {
	feeds   map[int64]*database.Feed
	nextID  int64
	created []database.Feed
}

func newFakeFeedRepo(feeds ...*database.Feed) *fakeFeedRepo {
	r := &fakeFeedRepo{feeds: make(map[int64]*database.Feed), nextID: 1000}
	for _, f := range feeds {
		r.feeds[f.ID] = f
	}
	return r
}

func (r *fakeFeedRepo) GetFeed(id int64) (*database.Feed, error) {
	f, ok := r.feeds[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return f, nil
}

func (r *fakeFeedRepo) GetFeedByURL(feedURL string) (*database.Feed, error) {
	for _, f := range r.feeds {
		if f.FeedURL == feedURL {
			return f, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *fakeFeedRepo) GetFeedsByType(types ...database.FeedType) ([]database.Feed, error) {
	var out []database.Feed
	for _, f := range r.feeds {
		for _, ft := range types {
			if f.FeedType == ft {
				out = append(out, *f)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeFeedRepo) CreateFeed(feed database.Feed) (*database.Feed, error) {
	if existing, err := r.GetFeedByURL(feed.FeedURL); err == nil {
		return existing, nil
	}
	r.nextID++
	feed.ID = r.nextID
	r.feeds[feed.ID] = &feed
	r.created = append(r.created, feed)
	return &feed, nil
}

type fakeUserRepo struct {
	users map[int64]*database.User
}

func newFakeUserRepo(users ...*database.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]*database.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetUser(id int64) (*database.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetUsersByIDs(ids []int64) ([]database.User, error) {
	var out []database.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type subscriptionRecord struct {
	UserID int64
	FeedID int64
	Title  string
}

type fakeSubscriptionRepo struct {
	activeUserIDs map[int64][]int64
	created       []subscriptionRecord
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{activeUserIDs: make(map[int64][]int64)}
}

func (r *fakeSubscriptionRepo) ActiveUserIDs(feedID int64) ([]int64, error) {
	return r.activeUserIDs[feedID], nil
}

func (r *fakeSubscriptionRepo) CreateOrReuseSubscription(userID, feedID int64, title string) error {
	r.created = append(r.created, subscriptionRecord{UserID: userID, FeedID: feedID, Title: title})
	return nil
}

// fakeImportRepo serializes status writes and completion checks the way the
// row-locked SQL implementation does.
type fakeImportRepo struct {
	mu      sync.Mutex
	imports map[int64]*database.Import
	items   map[int64]*database.ImportItem
}

func newFakeImportRepo(imports []*database.Import, items []*database.ImportItem) *fakeImportRepo {
	r := &fakeImportRepo{
		imports: make(map[int64]*database.Import),
		items:   make(map[int64]*database.ImportItem),
	}
	for _, imp := range imports {
		r.imports[imp.ID] = imp
	}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return r
}

func (r *fakeImportRepo) GetImport(id int64) (*database.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *imp
	return &copied, nil
}

func (r *fakeImportRepo) GetImportItem(id int64) (*database.ImportItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *fakeImportRepo) UpdateImportItemStatus(id int64, status database.ImportItemStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return database.ErrNotFound
	}
	if item.Status == database.ImportItemPending {
		item.Status = status
	}
	return nil
}

func (r *fakeImportRepo) CompleteImportIfDone(importID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[importID]
	if !ok {
		return false, database.ErrNotFound
	}
	if imp.Complete {
		return false, nil
	}
	for _, item := range r.items {
		if item.ImportID == importID && item.Status == database.ImportItemPending {
			return false, nil
		}
	}
	imp.Complete = true
	return true, nil
}

type tagRecord struct {
	FeedID         int64
	UserID         int64
	Names          string
	DeleteExisting bool
}

type fakeTaggingRepo struct {
	applied []tagRecord
}

func (r *fakeTaggingRepo) ApplyTag(feedID, userID int64, names string, deleteExisting bool) error {
	r.applied = append(r.applied, tagRecord{
		FeedID: feedID, UserID: userID, Names: names, DeleteExisting: deleteExisting,
	})
	return nil
}

type fakeResolver struct {
	candidates []feedfinder.Candidate
	err        error
	lastOpts   feedfinder.Options
	lastSource string
}

func (f *fakeResolver) Resolve(ctx context.Context, sourceURL string, opts feedfinder.Options) ([]feedfinder.Candidate, error) {
	f.lastSource = sourceURL
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeExtractor struct {
	pages     map[string]*extract.Page
	err       error
	extracted []string
}

func (f *fakeExtractor) Extract(ctx context.Context, pageURL string) (*extract.Page, error) {
	f.extracted = append(f.extracted, pageURL)
	if f.err != nil {
		return nil, f.err
	}
	if page, ok := f.pages[pageURL]; ok {
		return page, nil
	}
	return nil, fmt.Errorf("no content extracted from %s", pageURL)
}
