package database

import "errors"

// ErrNotFound is returned when the target row does not exist.
var ErrNotFound = errors.New("record not found")

type EntryRepository interface {
	GetEntry(id int64) (*Entry, error)
	GetEntryByPublicID(publicID string) (*Entry, error)
	UpdateEntryImage(id int64, image string) error
	UpdateEntryContent(id int64, content string) error
	UpdateEntryData(id int64, data JSONMap) error
}

type FeedRepository interface {
	GetFeed(id int64) (*Feed, error)
	GetFeedByURL(feedURL string) (*Feed, error)
	GetFeedsByType(types ...FeedType) ([]Feed, error)
	CreateFeed(feed Feed) (*Feed, error)
}

type UserRepository interface {
	GetUser(id int64) (*User, error)
	GetUsersByIDs(ids []int64) ([]User, error)
}

type SubscriptionRepository interface {
	ActiveUserIDs(feedID int64) ([]int64, error)
	CreateOrReuseSubscription(userID, feedID int64, title string) error
}

type ImportRepository interface {
	GetImport(id int64) (*Import, error)
	GetImportItem(id int64) (*ImportItem, error)
	UpdateImportItemStatus(id int64, status ImportItemStatus) error
	// CompleteImportIfDone marks the import complete when no pending items
	// remain, under a row-level lock. Returns whether it flipped the flag.
	CompleteImportIfDone(importID int64) (bool, error)
}

type TaggingRepository interface {
	ApplyTag(feedID, userID int64, names string, deleteExisting bool) error
}
