package jobs

import (
	"context"
	"log/slog"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/feed"
	"github.com/feedworks/refinery/app/feedfinder"
)

// FeedImporterJob matches one pending import item to a feed: it resolves
// candidates from the item's source URL, subscribes the importing user to
// the first match, and settles the item's terminal status. Whatever the
// outcome, it then re-checks the owning import batch for completion.
//
// Payload: (import item id).
type FeedImporterJob struct {
	imports       database.ImportRepository
	users         database.UserRepository
	subscriptions database.SubscriptionRepository
	feeds         *feed.Service
	finder        feedfinder.Resolver
	// strict makes resolution failures propagate instead of counting as
	// zero candidates; useful when diagnosing discovery problems.
	strict bool
}

func NewFeedImporterJob(imports database.ImportRepository, users database.UserRepository,
	subscriptions database.SubscriptionRepository, feeds *feed.Service,
	finder feedfinder.Resolver, strictResolutionErrors bool) *FeedImporterJob {
	return &FeedImporterJob{
		imports:       imports,
		users:         users,
		subscriptions: subscriptions,
		feeds:         feeds,
		finder:        finder,
		strict:        strictResolutionErrors,
	}
}

func (j *FeedImporterJob) Execute(ctx context.Context, args []any) error {
	itemID, err := argInt64(args, 0)
	if err != nil {
		return err
	}

	item, err := j.imports.GetImportItem(itemID)
	if err != nil {
		return err
	}

	imp, err := j.imports.GetImport(item.ImportID)
	if err != nil {
		return err
	}

	user, err := j.users.GetUser(imp.UserID)
	if err != nil {
		return err
	}

	candidates, err := j.findFeeds(ctx, item, user)
	if err != nil {
		return err
	}

	if len(candidates) > 0 {
		if err := j.matchItem(ctx, item, user, candidates[0]); err != nil {
			return err
		}
	} else {
		if err := j.imports.UpdateImportItemStatus(item.ID, database.ImportItemFailed); err != nil {
			return err
		}
	}

	_, err = j.imports.CompleteImportIfDone(item.ImportID)
	return err
}

func (j *FeedImporterJob) matchItem(ctx context.Context, item *database.ImportItem,
	user *database.User, candidate feedfinder.Candidate) error {
	matched, err := j.feeds.GetOrCreate(ctx, candidate)
	if err != nil {
		return err
	}

	if err := j.subscriptions.CreateOrReuseSubscription(user.ID, matched.ID, item.Title); err != nil {
		return err
	}

	if item.Tag != "" {
		if err := j.feeds.Tag(matched.ID, user.ID, item.Tag, false); err != nil {
			return err
		}
	}

	return j.imports.UpdateImportItemStatus(item.ID, database.ImportItemComplete)
}

func (j *FeedImporterJob) findFeeds(ctx context.Context, item *database.ImportItem,
	user *database.User) ([]feedfinder.Candidate, error) {
	opts := feedfinder.Options{ImportMode: true}
	if user.TwitterAuth() {
		opts.TwitterAuth = &feedfinder.TwitterAuth{
			AccessToken:  *user.TwitterAccessToken,
			AccessSecret: *user.TwitterAccessSecret,
		}
	}

	candidates, err := j.finder.Resolve(ctx, item.SourceURL, opts)
	if err != nil {
		if j.strict {
			return nil, err
		}
		slog.Warn("Feed resolution failed, treating as no candidates",
			"import_item_id", item.ID, "source_url", item.SourceURL, "error", err)
		return nil, nil
	}

	return candidates, nil
}
