package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/queue"
	"github.com/feedworks/refinery/app/tweet"
)

// CredentialKeys is one user's credential pair for an authenticated
// refresh.
type CredentialKeys struct {
	TwitterAccessToken  string `json:"twitter_access_token"`
	TwitterAccessSecret string `json:"twitter_access_secret"`
}

// TwitterFeedRefresherJob enumerates twitter-backed feeds, resolves the
// eligible credential sets per feed, and dispatches refresh work for the
// downstream refresher workers.
//
// Sweep payload: none.
type TwitterFeedRefresherJob struct {
	feeds         database.FeedRepository
	users         database.UserRepository
	subscriptions database.SubscriptionRepository
	submitter     queue.Submitter
}

func NewTwitterFeedRefresherJob(feeds database.FeedRepository, users database.UserRepository,
	subscriptions database.SubscriptionRepository, submitter queue.Submitter) *TwitterFeedRefresherJob {
	return &TwitterFeedRefresherJob{
		feeds:         feeds,
		users:         users,
		subscriptions: subscriptions,
		submitter:     submitter,
	}
}

// Execute sweeps every twitter feed in broadcast mode.
func (j *TwitterFeedRefresherJob) Execute(ctx context.Context, args []any) error {
	feeds, err := j.feeds.GetFeedsByType(database.FeedTypeTwitter, database.FeedTypeTwitterHome)
	if err != nil {
		return err
	}

	for i := range feeds {
		if err := j.EnqueueFeed(ctx, &feeds[i], nil); err != nil {
			return err
		}
	}

	return nil
}

// EnqueueFeed dispatches one refresh job for the feed when at least one
// eligible credential set exists. A user-triggered dispatch rides the
// critical queue under its own kind; broadcast dispatches use the standard
// one.
func (j *TwitterFeedRefresherJob) EnqueueFeed(ctx context.Context, feed *database.Feed,
	user *database.User) error {
	keys, err := j.loadKeys(feed, user)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	job := queue.Job{
		Kind:  queue.KindTwitterRefresher,
		Queue: queue.QueueTwitterRefresher,
		Args:  []any{feed.ID, feed.FeedURL, keys},
		Retry: false,
	}
	if user != nil {
		job.Kind = queue.KindTwitterRefresherCritical
		job.Queue = queue.QueueTwitterRefresherCritical
	}

	return j.submitter.Submit(ctx, job)
}

// PriorityRefresh handles a user-triggered refresh: twitter feeds dispatch
// through the credential path when stale, anything else goes straight to
// the critical downloader.
func (j *TwitterFeedRefresherJob) PriorityRefresh(ctx context.Context, feed *database.Feed,
	user *database.User) error {
	if feed.TwitterFeed() {
		if time.Since(feed.UpdatedAt) > 10*time.Minute {
			return j.EnqueueFeed(ctx, feed, user)
		}
		return nil
	}

	return j.submitter.Submit(ctx, queue.Job{
		Kind:  queue.KindFeedDownloaderCritical,
		Queue: queue.QueueCritical,
		Args:  []any{feed.ID, feed.FeedURL, feed.SubscriptionsCount},
		Retry: false,
	})
}

// loadKeys resolves the credential sets eligible to refresh the feed, in
// subscriber order, compacted of non-matches. Home timeline feeds only
// accept the user whose screen name the feed URL encodes.
func (j *TwitterFeedRefresherJob) loadKeys(feed *database.Feed, user *database.User) ([]CredentialKeys, error) {
	var candidates []database.User
	if user != nil {
		candidates = []database.User{*user}
	} else {
		userIDs, err := j.subscriptions.ActiveUserIDs(feed.ID)
		if err != nil {
			return nil, err
		}
		candidates, err = j.users.GetUsersByIDs(userIDs)
		if err != nil {
			return nil, err
		}
	}

	screenName := ""
	if feed.TwitterHome() {
		screenName = tweet.ScreenNameFromFeedURL(feed.FeedURL)
	}

	keys := lo.FilterMap(candidates, func(u database.User, _ int) (CredentialKeys, bool) {
		if !u.TwitterAuth() {
			return CredentialKeys{}, false
		}
		if feed.TwitterHome() && !strings.EqualFold(u.TwitterScreenName, screenName) {
			return CredentialKeys{}, false
		}
		return CredentialKeys{
			TwitterAccessToken:  *u.TwitterAccessToken,
			TwitterAccessSecret: *u.TwitterAccessSecret,
		}, true
	})

	return keys, nil
}
