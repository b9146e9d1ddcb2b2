// Package websub maintains push subscription callbacks with keyed-hash
// signing.
package websub

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Secret derives the per-feed subscription secret. It is a pure function of
// the feed id and the application secret, stable for the feed's lifetime.
func Secret(feedID int64, secretKeyBase string) string {
	digest := sha256.Sum256([]byte(strconv.FormatInt(feedID, 10) + "-" + secretKeyBase))
	return hex.EncodeToString(digest[:])
}

// Signature is the keyed hash of the feed id under the feed's secret.
func Signature(feedID int64, secretKeyBase string) string {
	mac := hmac.New(sha256.New, []byte(Secret(feedID, secretKeyBase)))
	mac.Write([]byte(strconv.FormatInt(feedID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the feed's signature and compares in constant
// time.
func VerifySignature(feedID int64, secretKeyBase, provided string) bool {
	return hmac.Equal([]byte(Signature(feedID, secretKeyBase)), []byte(provided))
}

// CallbackURL builds the verification endpoint for the feed, taking scheme
// and host from the configured push hub endpoint.
func CallbackURL(feedID int64, secretKeyBase, pushHubURL string) (string, error) {
	hub, err := url.Parse(pushHubURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse push hub URL: %w", err)
	}
	if hub.Scheme == "" || hub.Host == "" {
		return "", fmt.Errorf("push hub URL %q has no scheme or host", pushHubURL)
	}

	callback := url.URL{
		Scheme:   hub.Scheme,
		Host:     hub.Host,
		Path:     fmt.Sprintf("/websub/feeds/%d/verify", feedID),
		RawQuery: url.Values{"signature": {Signature(feedID, secretKeyBase)}}.Encode(),
	}

	return callback.String(), nil
}

type Subscriber interface {
	Subscribe(ctx context.Context, feedID int64, topic string) error
}

var _ Subscriber = (*HubSubscriber)(nil)

// HubSubscriber issues subscribe requests against the configured hub.
type HubSubscriber struct {
	httpClient    *http.Client
	hubURL        string
	secretKeyBase string
	userAgent     string
	timeout       time.Duration
}

func NewHubSubscriber(httpClient *http.Client, hubURL, secretKeyBase, userAgent string) *HubSubscriber {
	return &HubSubscriber{
		httpClient:    httpClient,
		hubURL:        hubURL,
		secretKeyBase: secretKeyBase,
		userAgent:     userAgent,
		timeout:       15 * time.Second,
	}
}

// Subscribe asks the hub to start pushing updates for the topic to the
// feed's callback URL. Confirmation arrives later through the verify
// endpoint; this call does not wait for it.
func (s *HubSubscriber) Subscribe(ctx context.Context, feedID int64, topic string) error {
	callback, err := CallbackURL(feedID, s.secretKeyBase, s.hubURL)
	if err != nil {
		return err
	}

	form := url.Values{
		"hub.mode":     {"subscribe"},
		"hub.topic":    {topic},
		"hub.callback": {callback},
		"hub.secret":   {Secret(feedID, s.secretKeyBase)},
		"hub.verify":   {"async"},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", s.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create subscribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach push hub: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push hub rejected subscribe for feed %d: %d %s", feedID, resp.StatusCode, resp.Status)
	}

	return nil
}
