package managers

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	upsertTokens         = `(?s)INSERT INTO tokens \(user_id, access_token, refresh_token\) VALUES \(\$1, \$2, \$3\).*ON CONFLICT \(user_id\) DO UPDATE`
	selectTokensByUser   = `SELECT token_id, user_id, access_token, refresh_token FROM tokens WHERE user_id = \$1`
	selectUserByAccess   = `SELECT user_id FROM tokens WHERE access_token = \$1`
	deleteTokensByUser   = `DELETE FROM tokens WHERE user_id = \$1`
	deleteTokensByAccess = `DELETE FROM tokens WHERE access_token = \$1`
)

var tokenColumnNames = []string{"token_id", "user_id", "access_token", "refresh_token"}

// TestTokenStoreSaveKeepsOneRecord tests that two logins of one user leave a single record with the latest tokens
func TestTokenStoreSaveKeepsOneRecord(t *testing.T) {
	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer poolMock.Close()

	store := NewTokenStore()
	ctx := context.Background()

	poolMock.ExpectExec(upsertTokens).WithArgs(int64(42), "access-1", "refresh-1").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	poolMock.ExpectExec(upsertTokens).WithArgs(int64(42), "access-2", "refresh-2").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	poolMock.ExpectQuery(selectTokensByUser).WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(tokenColumnNames).AddRow(int64(1), int64(42), "access-2", "refresh-2"))

	require.NoError(t, store.Save(ctx, poolMock, 42, "access-1", "refresh-1"))
	require.NoError(t, store.Save(ctx, poolMock, 42, "access-2", "refresh-2"))

	token, err := store.FindByUser(ctx, poolMock, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), token.ID)
	assert.Equal(t, "access-2", token.AccessToken)
	assert.Equal(t, "refresh-2", token.RefreshToken)

	assert.NoError(t, poolMock.ExpectationsWereMet())
}

// TestTokenStoreLookups tests the lookups of missing and present token records
func TestTokenStoreLookups(t *testing.T) {
	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer poolMock.Close()

	store := NewTokenStore()
	ctx := context.Background()

	poolMock.ExpectQuery(selectTokensByUser).WithArgs(int64(7)).WillReturnRows(pgxmock.NewRows(tokenColumnNames))
	poolMock.ExpectQuery(selectUserByAccess).WithArgs("expired-token").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(42)))
	poolMock.ExpectQuery(selectUserByAccess).WithArgs("unknown-token").WillReturnRows(pgxmock.NewRows([]string{"user_id"}))

	_, err = store.FindByUser(ctx, poolMock, 7)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	userId, err := store.FindUserByAccessToken(ctx, poolMock, "expired-token")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userId)

	_, err = store.FindUserByAccessToken(ctx, poolMock, "unknown-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	assert.NoError(t, poolMock.ExpectationsWereMet())
}

// TestTokenStoreDelete tests that deletions report whether a record was removed
func TestTokenStoreDelete(t *testing.T) {
	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer poolMock.Close()

	store := NewTokenStore()
	ctx := context.Background()

	poolMock.ExpectExec(deleteTokensByUser).WithArgs(int64(42)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	poolMock.ExpectExec(deleteTokensByAccess).WithArgs("access-2").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := store.DeleteByUserId(ctx, poolMock, 42)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByAccessToken(ctx, poolMock, "access-2")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.NoError(t, poolMock.ExpectationsWereMet())
}
