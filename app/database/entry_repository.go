package database

import (
	"database/sql"
	"errors"
	"fmt"
)

var _ EntryRepository = (*entryRepository)(nil)

type entryRepository struct {
	db *DB
}

func NewEntryRepository(db *DB) EntryRepository {
	return &entryRepository{db: db}
}

const entryColumns = `id, public_id, feed_id, title, author, url, content, image, data, created_at, updated_at`

func (r *entryRepository) GetEntry(id int64) (*Entry, error) {
	var entry Entry
	err := r.db.Get(&entry, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE id = $1
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return &entry, nil
}

func (r *entryRepository) GetEntryByPublicID(publicID string) (*Entry, error) {
	var entry Entry
	err := r.db.Get(&entry, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE public_id = $1
	`, publicID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry by public id: %w", err)
	}

	return &entry, nil
}

func (r *entryRepository) UpdateEntryImage(id int64, image string) error {
	_, err := r.db.Exec(`
		UPDATE entries
		SET image = $2, updated_at = NOW()
		WHERE id = $1
	`, id, image)

	if err != nil {
		return fmt.Errorf("failed to update entry image: %w", err)
	}

	return nil
}

func (r *entryRepository) UpdateEntryContent(id int64, content string) error {
	_, err := r.db.Exec(`
		UPDATE entries
		SET content = $2, updated_at = NOW()
		WHERE id = $1
	`, id, content)

	if err != nil {
		return fmt.Errorf("failed to update entry content: %w", err)
	}

	return nil
}

func (r *entryRepository) UpdateEntryData(id int64, data JSONMap) error {
	_, err := r.db.Exec(`
		UPDATE entries
		SET data = $2, updated_at = NOW()
		WHERE id = $1
	`, id, data)

	if err != nil {
		return fmt.Errorf("failed to update entry data: %w", err)
	}

	return nil
}
