package database

import (
	"fmt"
	"strings"
)

var _ TaggingRepository = (*taggingRepository)(nil)

type taggingRepository struct {
	db *DB
}

func NewTaggingRepository(db *DB) TaggingRepository {
	return &taggingRepository{db: db}
}

// ApplyTag tags the feed for the user with each comma-separated name.
// Tags are created on first use; taggings are upserts guarded by the
// (user_id, feed_id, tag_id) unique constraint. When deleteExisting is set,
// the user's previous taggings for the feed are cleared first.
func (r *taggingRepository) ApplyTag(feedID, userID int64, names string, deleteExisting bool) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if deleteExisting {
		_, err := tx.Exec(`
			DELETE FROM taggings
			WHERE user_id = $1 AND feed_id = $2
		`, userID, feedID)
		if err != nil {
			return fmt.Errorf("failed to clear existing taggings: %w", err)
		}
	}

	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var tagID int64
		err := tx.Get(&tagID, `
			INSERT INTO tags (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name)
		if err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO taggings (user_id, feed_id, tag_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, feed_id, tag_id) DO NOTHING
		`, userID, feedID, tagID)
		if err != nil {
			return fmt.Errorf("failed to upsert tagging for tag %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit taggings: %w", err)
	}

	return nil
}
