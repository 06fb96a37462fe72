package managers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"silverrock/internal/interfaces"
	"silverrock/internal/schemas"
)

// TokenStore persists the token pair of the current session of every user.
// The tokens table holds at most one row per user, guarded by its unique user_id.
type TokenStore interface {
	Save(ctx context.Context, q interfaces.Querier, userId int64, accessToken, refreshToken string) error
	FindByUser(ctx context.Context, q interfaces.Querier, userId int64) (*schemas.SessionToken, error)
	FindUserByAccessToken(ctx context.Context, q interfaces.Querier, accessToken string) (int64, error)
	DeleteByUserId(ctx context.Context, q interfaces.Querier, userId int64) (bool, error)
	DeleteByAccessToken(ctx context.Context, q interfaces.Querier, accessToken string) (bool, error)
}

type PostgresTokenStore struct{}

func NewTokenStore() *PostgresTokenStore {
	return &PostgresTokenStore{}
}

// Save stores the token pair of the user, replacing the previous one in place.
// It is a single upsert, so concurrent logins of one user cannot create a second row.
func (s *PostgresTokenStore) Save(ctx context.Context, q interfaces.Querier, userId int64, accessToken, refreshToken string) error {
	queryString := `INSERT INTO tokens (user_id, access_token, refresh_token) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET access_token = EXCLUDED.access_token, refresh_token = EXCLUDED.refresh_token`
	if _, err := q.Exec(ctx, queryString, userId, accessToken, refreshToken); err != nil {
		return fmt.Errorf("save tokens of user %d: %w", userId, err)
	}

	return nil
}

func (s *PostgresTokenStore) FindByUser(ctx context.Context, q interfaces.Querier, userId int64) (*schemas.SessionToken, error) {
	queryString := "SELECT token_id, user_id, access_token, refresh_token FROM tokens WHERE user_id = $1"

	var accessToken, refreshToken pgtype.Text
	token := &schemas.SessionToken{}
	err := q.QueryRow(ctx, queryString, userId).Scan(&token.ID, &token.UserID, &accessToken, &refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("find tokens of user %d: %w", userId, err)
	}

	token.AccessToken = accessToken.String
	token.RefreshToken = refreshToken.String
	return token, nil
}

// FindUserByAccessToken resolves the owner of a stored access token. The token itself
// is not verified, so expired tokens are still found as long as they are stored.
func (s *PostgresTokenStore) FindUserByAccessToken(ctx context.Context, q interfaces.Querier, accessToken string) (int64, error) {
	queryString := "SELECT user_id FROM tokens WHERE access_token = $1"

	var userId int64
	if err := q.QueryRow(ctx, queryString, accessToken).Scan(&userId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrTokenNotFound
		}
		return 0, fmt.Errorf("find user by access token: %w", err)
	}

	return userId, nil
}

func (s *PostgresTokenStore) DeleteByUserId(ctx context.Context, q interfaces.Querier, userId int64) (bool, error) {
	tag, err := q.Exec(ctx, "DELETE FROM tokens WHERE user_id = $1", userId)
	if err != nil {
		return false, fmt.Errorf("delete tokens of user %d: %w", userId, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *PostgresTokenStore) DeleteByAccessToken(ctx context.Context, q interfaces.Querier, accessToken string) (bool, error) {
	tag, err := q.Exec(ctx, "DELETE FROM tokens WHERE access_token = $1", accessToken)
	if err != nil {
		return false, fmt.Errorf("delete tokens by access token: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
