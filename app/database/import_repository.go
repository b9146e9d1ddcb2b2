package database

import (
	"database/sql"
	"errors"
	"fmt"
)

var _ ImportRepository = (*importRepository)(nil)

type importRepository struct {
	db *DB
}

func NewImportRepository(db *DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) GetImport(id int64) (*Import, error) {
	var imp Import
	err := r.db.Get(&imp, `
		SELECT id, user_id, complete, created_at
		FROM imports
		WHERE id = $1
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import: %w", err)
	}

	return &imp, nil
}

func (r *importRepository) GetImportItem(id int64) (*ImportItem, error) {
	var item ImportItem
	err := r.db.Get(&item, `
		SELECT id, import_id, title, source_url, tag, status, created_at, updated_at
		FROM import_items
		WHERE id = $1
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import item: %w", err)
	}

	return &item, nil
}

// UpdateImportItemStatus moves a pending item to a terminal status.
// Terminal statuses never revert, so already-terminal rows are left alone.
func (r *importRepository) UpdateImportItemStatus(id int64, status ImportItemStatus) error {
	_, err := r.db.Exec(`
		UPDATE import_items
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, status)

	if err != nil {
		return fmt.Errorf("failed to update import item status: %w", err)
	}

	return nil
}

// CompleteImportIfDone re-checks pending items and flips the import's
// complete flag under an exclusive row lock, so two sibling item jobs
// finishing at the same time cannot both miss the final state. The lock is
// scoped to this check-then-write only.
func (r *importRepository) CompleteImportIfDone(importID int64) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var imp Import
	err = tx.Get(&imp, `
		SELECT id, user_id, complete, created_at
		FROM imports
		WHERE id = $1
		FOR UPDATE
	`, importID)

	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock import: %w", err)
	}

	if imp.Complete {
		return false, tx.Commit()
	}

	var pending int
	err = tx.Get(&pending, `
		SELECT COUNT(*)
		FROM import_items
		WHERE import_id = $1 AND status = 'pending'
	`, importID)
	if err != nil {
		return false, fmt.Errorf("failed to count pending import items: %w", err)
	}

	if pending > 0 {
		return false, tx.Commit()
	}

	_, err = tx.Exec(`
		UPDATE imports
		SET complete = TRUE
		WHERE id = $1
	`, importID)
	if err != nil {
		return false, fmt.Errorf("failed to mark import complete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit import completion: %w", err)
	}

	return true, nil
}
