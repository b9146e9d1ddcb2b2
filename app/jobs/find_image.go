package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/feedworks/refinery/app/queue"
	"github.com/feedworks/refinery/app/scanner"
	"github.com/feedworks/refinery/app/urlutil"
)

// FindImageJob probes the candidate URLs produced by EntryImageJob for an
// actual image, falling back to the entry page's social preview image, and
// reports the winner back through an entry_image submit.
//
// Payload: (entry public id, preset, candidate URLs, fallback page URL).
type FindImageJob struct {
	httpClient *http.Client
	userAgent  string
	submitter  queue.Submitter
	timeout    time.Duration
}

func NewFindImageJob(httpClient *http.Client, userAgent string, submitter queue.Submitter) *FindImageJob {
	return &FindImageJob{
		httpClient: httpClient,
		userAgent:  userAgent,
		submitter:  submitter,
		timeout:    15 * time.Second,
	}
}

func (j *FindImageJob) Execute(ctx context.Context, args []any) error {
	publicID, err := argString(args, 0)
	if err != nil {
		return err
	}
	preset, err := argString(args, 1)
	if err != nil {
		return err
	}
	candidates, err := argStringSlice(args, 2)
	if err != nil {
		return err
	}
	fallbackURL := argOptionalString(args, 3)

	for _, candidate := range candidates {
		if preset == findImagePresetYouTube {
			candidate = youtubeThumbnail(candidate)
			if candidate == "" {
				continue
			}
		}
		if j.isImage(ctx, candidate) {
			return j.report(ctx, publicID, candidate)
		}
	}

	if fallbackURL != nil {
		if image := j.pagePreviewImage(ctx, *fallbackURL); image != "" {
			return j.report(ctx, publicID, image)
		}
	}

	// No image anywhere is not an error.
	return nil
}

func (j *FindImageJob) report(ctx context.Context, publicID, image string) error {
	return j.submitter.Submit(ctx, queue.Job{
		Kind:  queue.KindEntryImage,
		Queue: queue.QueueDefault,
		Args:  []any{publicID, image},
		Retry: false,
	})
}

// isImage fetches the URL and checks the response claims an image.
func (j *FindImageJob) isImage(ctx context.Context, rawURL string) bool {
	resp, err := j.get(ctx, rawURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1))

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	return strings.HasPrefix(contentType, "image/")
}

// pagePreviewImage fetches an HTML page and pulls its social preview image.
func (j *FindImageJob) pagePreviewImage(ctx context.Context, pageURL string) string {
	resp, err := j.get(ctx, pageURL)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return ""
	}

	image := scanner.FindOpenGraphImage(data)
	if image == "" {
		return ""
	}
	image = urlutil.Rebase(image, pageURL)

	if !j.isImage(ctx, image) {
		return ""
	}
	return image
}

func (j *FindImageJob) get(ctx context.Context, rawURL string) (*http.Response, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", j.userAgent)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	return resp, nil
}

var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?.*v=|youtu\.be/|youtube\.com/embed/)([\w-]{6,})`)

// youtubeThumbnail maps a video URL to its poster frame URL.
func youtubeThumbnail(videoURL string) string {
	match := youtubeIDPattern.FindStringSubmatch(videoURL)
	if match == nil {
		return ""
	}
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/maxresdefault.jpg", match[1])
}
