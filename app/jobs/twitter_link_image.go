package jobs

import (
	"context"
	"net/http"
	"time"

	"github.com/feedworks/refinery/app/queue"
)

// TwitterLinkImageJob resolves an image for a link tweet from the specific
// page the tweet shared, rather than from the entry's own markup.
//
// Payload: (entry public id, optional image URL, shared page URL).
type TwitterLinkImageJob struct {
	finder    *FindImageJob
	submitter queue.Submitter
}

func NewTwitterLinkImageJob(httpClient *http.Client, userAgent string, submitter queue.Submitter) *TwitterLinkImageJob {
	finder := NewFindImageJob(httpClient, userAgent, submitter)
	finder.timeout = 15 * time.Second
	return &TwitterLinkImageJob{
		finder:    finder,
		submitter: submitter,
	}
}

func (j *TwitterLinkImageJob) Execute(ctx context.Context, args []any) error {
	publicID, err := argString(args, 0)
	if err != nil {
		return err
	}

	if image := argOptionalString(args, 1); image != nil {
		return j.finder.report(ctx, publicID, *image)
	}

	pageURL, err := argString(args, 2)
	if err != nil {
		return err
	}

	if image := j.finder.pagePreviewImage(ctx, pageURL); image != "" {
		return j.finder.report(ctx, publicID, image)
	}

	return nil
}
