package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/feedworks/refinery/app/tweet"
	"github.com/feedworks/refinery/app/urlutil"
)

// JSONMap is a free-form jsonb column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	return json.Unmarshal(data, m)
}

type FeedType int

const (
	FeedTypeXML FeedType = iota
	FeedTypeNewsletter
	FeedTypeTwitter
	FeedTypeTwitterHome
	FeedTypePages
)

type Feed struct {
	ID                 int64     `db:"id"`
	FeedURL            string    `db:"feed_url"`
	SiteURL            string    `db:"site_url"`
	Title              string    `db:"title"`
	Host               *string   `db:"host"`
	FeedType           FeedType  `db:"feed_type"`
	SubscriptionsCount int       `db:"subscriptions_count"`
	Settings           JSONMap   `db:"settings"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// TwitterFeed reports whether the feed refreshes through the twitter API.
func (f *Feed) TwitterFeed() bool {
	return f.FeedType == FeedTypeTwitter || f.FeedType == FeedTypeTwitterHome
}

func (f *Feed) TwitterHome() bool {
	return f.FeedType == FeedTypeTwitterHome
}

type Entry struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	FeedID    int64     `db:"feed_id"`
	Title     string    `db:"title"`
	Author    string    `db:"author"`
	URL       string    `db:"url"`
	Content   string    `db:"content"`
	Image     *string   `db:"image"`
	Data      JSONMap   `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Tweet decodes the social post payload stored on the entry.
func (e *Entry) Tweet() (*tweet.Tweet, error) {
	raw, ok := e.Data["tweet"]
	if !ok {
		return nil, fmt.Errorf("entry %s has no tweet payload", e.PublicID)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode tweet payload: %w", err)
	}
	return tweet.Decode(data)
}

func (e *Entry) IsTweet() bool {
	_, ok := e.Data["tweet"]
	return ok
}

// IsLinkTweet reports whether the post's primary purpose is sharing exactly
// one link: a single outbound URL and no attached media.
func (e *Entry) IsLinkTweet() bool {
	t, err := e.Tweet()
	if err != nil {
		return false
	}
	return !t.HasMedia() && len(t.ExpandedURLs()) == 1
}

func (e *Entry) IsYouTube() bool {
	host, err := urlutil.Host(e.URL)
	if err != nil {
		return false
	}
	return host == "youtube.com" || host == "youtu.be" ||
		strings.HasSuffix(host, ".youtube.com")
}

type User struct {
	ID                  int64     `db:"id"`
	Email               string    `db:"email"`
	TwitterScreenName   string    `db:"twitter_screen_name"`
	TwitterAccessToken  *string   `db:"twitter_access_token"`
	TwitterAccessSecret *string   `db:"twitter_access_secret"`
	CreatedAt           time.Time `db:"created_at"`
}

// TwitterAuth reports whether the user has a usable credential pair.
func (u *User) TwitterAuth() bool {
	return u.TwitterAccessToken != nil && *u.TwitterAccessToken != "" &&
		u.TwitterAccessSecret != nil && *u.TwitterAccessSecret != ""
}

type Subscription struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	FeedID    int64     `db:"feed_id"`
	Title     *string   `db:"title"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

type Import struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Complete  bool      `db:"complete"`
	CreatedAt time.Time `db:"created_at"`
}

type ImportItemStatus string

const (
	ImportItemPending  ImportItemStatus = "pending"
	ImportItemComplete ImportItemStatus = "complete"
	ImportItemFailed   ImportItemStatus = "failed"
)

type ImportItem struct {
	ID        int64            `db:"id"`
	ImportID  int64            `db:"import_id"`
	Title     string           `db:"title"`
	SourceURL string           `db:"source_url"`
	Tag       string           `db:"tag"`
	Status    ImportItemStatus `db:"status"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}
