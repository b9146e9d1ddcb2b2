package jobs

import (
	"context"
	"errors"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/queue"
	"github.com/feedworks/refinery/app/scanner"
	"github.com/feedworks/refinery/app/urlutil"
)

// findImagePresetPrimary drives generic image extraction downstream;
// findImagePresetYouTube tells the extractor to derive a video thumbnail.
const (
	findImagePresetPrimary = "primary"
	findImagePresetYouTube = "youtube"
)

// EntryImageJob decides whether an entry needs a representative image and
// either applies a supplied one or hands candidate URLs to the downstream
// image finder.
//
// Payload: (entry public id, optional image URL).
type EntryImageJob struct {
	entries   database.EntryRepository
	feeds     database.FeedRepository
	submitter queue.Submitter
}

func NewEntryImageJob(entries database.EntryRepository, feeds database.FeedRepository,
	submitter queue.Submitter) *EntryImageJob {
	return &EntryImageJob{
		entries:   entries,
		feeds:     feeds,
		submitter: submitter,
	}
}

func (j *EntryImageJob) Execute(ctx context.Context, args []any) error {
	publicID, err := argString(args, 0)
	if err != nil {
		return err
	}
	image := argOptionalString(args, 1)

	entry, err := j.entries.GetEntryByPublicID(publicID)
	if errors.Is(err, database.ErrNotFound) {
		// Entry already deleted; nothing to enrich.
		return nil
	}
	if err != nil {
		return err
	}

	if image != nil {
		return j.entries.UpdateEntryImage(entry.ID, *image)
	}

	if entry.Image != nil && *entry.Image != "" {
		return nil
	}

	payload, err := j.buildPayload(entry)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}

	return j.submitter.Submit(ctx, queue.Job{
		Kind:  queue.KindFindImage,
		Queue: queue.QueueImageParallel,
		Args:  payload,
		Retry: false,
	})
}

// buildPayload assembles the downstream payload
// (public id, preset, candidate URLs, fallback page URL), or nil when the
// entry offers nothing to extract from.
func (j *EntryImageJob) buildPayload(entry *database.Entry) ([]any, error) {
	var imageURLs []string
	entryURL := ""
	preset := findImagePresetPrimary

	switch {
	case entry.IsTweet():
		t, err := entry.Tweet()
		if err != nil {
			return nil, err
		}
		for _, post := range t.Thread() {
			if post.HasMedia() {
				imageURLs = []string{post.FirstMediaURL()}
				break
			}
		}
	case entry.IsYouTube():
		imageURLs = []string{entry.URL}
		preset = findImagePresetYouTube
	default:
		sameDomain, err := j.sameDomain(entry)
		if err != nil {
			return nil, err
		}
		if sameDomain {
			entryURL = entry.URL
		}
		imageURLs = scanner.FindMediaURLs(entry.Content, entry.URL)
	}

	if len(imageURLs) == 0 && entryURL == "" {
		return nil, nil
	}

	return []any{entry.PublicID, preset, imageURLs, entryURL}, nil
}

func (j *EntryImageJob) sameDomain(entry *database.Entry) (bool, error) {
	feed, err := j.feeds.GetFeed(entry.FeedID)
	if err != nil {
		return false, err
	}
	if feed.Host == nil || *feed.Host == "" {
		return false, nil
	}

	entryHost, err := urlutil.Host(entry.URL)
	if err != nil {
		return false, nil
	}

	return entryHost == *feed.Host, nil
}
