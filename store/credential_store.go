package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
)

// PostgresCredentialStore is the durable, server-side-only holder of the
// linked account's token pair. One row per user.
type PostgresCredentialStore struct {
	db *sql.DB
}

var _ types.CredentialStore = (*PostgresCredentialStore)(nil)

func NewPostgresCredentialStore(db *sql.DB) *PostgresCredentialStore {
	return &PostgresCredentialStore{db: db}
}

func (s *PostgresCredentialStore) CreateUser(ctx context.Context) (string, error) {
	const query = `
		INSERT INTO users DEFAULT VALUES
		RETURNING id
	`

	var userID string
	if err := s.db.QueryRowContext(ctx, query).Scan(&userID); err != nil {
		return "", &util.PersistenceError{Op: "create user", Err: err}
	}

	return userID, nil
}

func (s *PostgresCredentialStore) Save(ctx context.Context, acc *types.FitbitAccount) error {
	const query = `
		INSERT INTO fitbit_accounts (
			user_id,
			fitbit_user_id,
			display_name,
			access_token,
			refresh_token,
			token_type,
			scope,
			expires_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			fitbit_user_id = EXCLUDED.fitbit_user_id,
			display_name = EXCLUDED.display_name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		acc.UserID,
		acc.FitbitUserID,
		acc.DisplayName,
		acc.AccessToken,
		acc.RefreshToken,
		acc.TokenType,
		acc.Scope,
		acc.ExpiresAt,
		time.Now(),
	)
	if err != nil {
		return &util.PersistenceError{Op: "save", Err: err}
	}

	return nil
}

func (s *PostgresCredentialStore) Load(ctx context.Context, userID string) (*types.FitbitAccount, error) {
	const query = `
		SELECT
			id, user_id, fitbit_user_id, display_name,
			access_token, refresh_token, token_type, scope,
			expires_at, last_synced_at, created_at, updated_at
		FROM fitbit_accounts
		WHERE user_id = $1
	`

	var acc types.FitbitAccount
	row := s.db.QueryRowContext(ctx, query, userID)
	err := row.Scan(
		&acc.ID,
		&acc.UserID,
		&acc.FitbitUserID,
		&acc.DisplayName,
		&acc.AccessToken,
		&acc.RefreshToken,
		&acc.TokenType,
		&acc.Scope,
		&acc.ExpiresAt,
		&acc.LastSyncedAt,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &util.PersistenceError{Op: "load", Err: err}
	}

	return &acc, nil
}

func (s *PostgresCredentialStore) Clear(ctx context.Context, userID string) error {
	const query = `DELETE FROM fitbit_accounts WHERE user_id = $1`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return &util.PersistenceError{Op: "clear", Err: err}
	}

	return nil
}

func (s *PostgresCredentialStore) RecordSync(ctx context.Context, userID string, t time.Time) error {
	const query = `
		UPDATE fitbit_accounts
		SET
			last_synced_at = $1,
			updated_at = $2
		WHERE
			user_id = $3
	`
	if _, err := s.db.ExecContext(ctx, query, t, time.Now(), userID); err != nil {
		return &util.PersistenceError{Op: "record sync", Err: err}
	}

	return nil
}
