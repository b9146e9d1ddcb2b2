package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var _ UserRepository = (*userRepository)(nil)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, twitter_screen_name, twitter_access_token, twitter_access_secret, created_at`

func (r *userRepository) GetUser(id int64) (*User, error) {
	var user User
	err := r.db.Get(&user, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetUsersByIDs(ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+userColumns+`
		FROM users
		WHERE id IN (?)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	var users []User
	err = r.db.Select(&users, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	return users, nil
}
