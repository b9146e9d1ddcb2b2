package database

import "fmt"

var _ SubscriptionRepository = (*subscriptionRepository)(nil)

type subscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) ActiveUserIDs(feedID int64) ([]int64, error) {
	var userIDs []int64
	err := r.db.Select(&userIDs, `
		SELECT user_id
		FROM subscriptions
		WHERE feed_id = $1 AND active = TRUE
		ORDER BY id
	`, feedID)

	if err != nil {
		return nil, fmt.Errorf("failed to get active subscribers: %w", err)
	}

	return userIDs, nil
}

// CreateOrReuseSubscription inserts a subscription with the given default
// title, leaving any existing (user, feed) row untouched. The unique
// constraint on (user_id, feed_id) guards the upsert.
func (r *subscriptionRepository) CreateOrReuseSubscription(userID, feedID int64, title string) error {
	var titleArg *string
	if title != "" {
		titleArg = &title
	}

	_, err := r.db.Exec(`
		INSERT INTO subscriptions (user_id, feed_id, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, feed_id) DO NOTHING
	`, userID, feedID, titleArg)

	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}
