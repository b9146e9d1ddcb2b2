// Package queue is the job transport: named queues with priorities, a
// worker pool, and a dispatch table over a closed set of job kinds.
package queue

import "context"

// Kind identifies a job handler. The set is closed; payloads never name
// handler types dynamically.
type Kind string

const (
	KindEntryImage               Kind = "entry_image"
	KindFindImage                Kind = "find_image"
	KindHarvestLinks             Kind = "harvest_links"
	KindFeedImporter             Kind = "feed_importer"
	KindTwitterFeedRefresher     Kind = "twitter_feed_refresher"
	KindTwitterRefresher         Kind = "twitter_refresher"
	KindTwitterRefresherCritical Kind = "twitter_refresher_critical"
	KindTwitterLinkImage         Kind = "twitter_link_image"
	KindWebSubSubscribe          Kind = "web_sub_subscribe"
	KindFeedDownloaderCritical   Kind = "feed_downloader_critical"
)

// Queue names, drained in the order listed in queuePriority.
const (
	QueueCritical                 = "critical"
	QueueTwitterRefresherCritical = "twitter_refresher_critical"
	QueueDefault                  = "default"
	QueueImageParallel            = "image_parallel"
	QueueTwitterRefresher         = "twitter_refresher"
	QueueLow                      = "low"
)

// Job is a queued unit of work. Args are positional, matching the payload
// contract of each kind.
type Job struct {
	Kind  Kind
	Queue string
	Args  []any
	Retry bool
}

// Submitter accepts jobs for asynchronous execution. Submission is
// synchronous to the caller; execution is not awaited.
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

// HandlerFunc executes one job's payload.
type HandlerFunc func(ctx context.Context, args []any) error
