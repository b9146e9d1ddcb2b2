package jobs

import (
	"context"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/extract"
	"github.com/feedworks/refinery/app/queue"
	"github.com/feedworks/refinery/app/render"
	"github.com/feedworks/refinery/app/tweet"
	"github.com/feedworks/refinery/app/urlutil"
)

// HarvestLinksJob resolves the first external link shared by a tweet entry
// (or its quoted post), caches a readability-parsed copy of that page on
// the entry, and re-renders the entry's display content.
//
// Payload: (entry id).
type HarvestLinksJob struct {
	entries   database.EntryRepository
	extractor extract.PageExtractor
	renderer  render.Renderer
	blocklist *urlutil.Blocklist
	submitter queue.Submitter
}

func NewHarvestLinksJob(entries database.EntryRepository, extractor extract.PageExtractor,
	renderer render.Renderer, blocklist *urlutil.Blocklist, submitter queue.Submitter) *HarvestLinksJob {
	return &HarvestLinksJob{
		entries:   entries,
		extractor: extractor,
		renderer:  renderer,
		blocklist: blocklist,
		submitter: submitter,
	}
}

func (j *HarvestLinksJob) Execute(ctx context.Context, args []any) error {
	entryID, err := argInt64(args, 0)
	if err != nil {
		return err
	}

	entry, err := j.entries.GetEntry(entryID)
	if err != nil {
		return err
	}

	t, err := entry.Tweet()
	if err != nil {
		return err
	}

	urls := j.findURLs(t.Thread())
	if len(urls) > 0 {
		pageURL := urls[0]

		// Extraction failures fail the whole job; the queue layer is
		// configured without retries, so a failure here surfaces once.
		page, err := j.extractor.Extract(ctx, pageURL)
		if err != nil {
			return err
		}

		saved, _ := entry.Data["saved_pages"].(map[string]any)
		if saved == nil {
			saved = make(map[string]any)
		}
		saved[pageURL] = page
		entry.Data["saved_pages"] = saved

		if err := j.entries.UpdateEntryData(entry.ID, entry.Data); err != nil {
			return err
		}

		if entry.IsLinkTweet() {
			err := j.submitter.Submit(ctx, queue.Job{
				Kind:  queue.KindTwitterLinkImage,
				Queue: queue.QueueImageParallel,
				Args:  []any{entry.PublicID, nil, pageURL},
				Retry: false,
			})
			if err != nil {
				return err
			}
		}
	}

	content, err := j.renderer.TweetHTML(entry)
	if err != nil {
		return err
	}

	return j.entries.UpdateEntryContent(entry.ID, content)
}

// findURLs collects outbound links from the posts in order, skipping links
// that point back at the hosting platform itself.
func (j *HarvestLinksJob) findURLs(posts []*tweet.Tweet) []string {
	var urls []string
	for _, post := range posts {
		for _, u := range post.ExpandedURLs() {
			if !j.blocklist.Blocked(u) {
				urls = append(urls, u)
			}
		}
	}
	return urls
}
