package managers

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"silverrock/internal/schemas"
)

const (
	insertUser      = `INSERT INTO users \(phone_number, gender, nickname, birth, region, password, introduction, email\)`
	updateUser      = `UPDATE users SET`
	selectNearby    = `WHERE u.region = \(SELECT region FROM users WHERE user_id = \$1\) AND u.user_id <> \$1`
	nicknameExists  = `SELECT EXISTS \(SELECT 1 FROM users WHERE nickname = \$1\)`
	upsertProfile   = `(?s)INSERT INTO profiles \(user_id, image_url, file_name\).*ON CONFLICT \(user_id\) DO UPDATE`
	selectProfile   = `SELECT profile_id, user_id, image_url, file_name FROM profiles WHERE user_id = \$1`
	deleteProfile   = `DELETE FROM profiles WHERE user_id = \$1`
	selectUserPhone = `FROM users WHERE phone_number = \$1`
)

func newTestUser() *schemas.User {
	return &schemas.User{
		PhoneNumber:  "010-1234-5678",
		Gender:       "FEMALE",
		Nickname:     "sunny",
		Birth:        "1950-03-01",
		Region:       "Seoul",
		Password:     "$2a$10$hash",
		Introduction: "Hello",
	}
}

// TestUserDirectoryCreate tests creating users and the mapping of unique violations
func TestUserDirectoryCreate(t *testing.T) {
	testCases := []struct {
		name       string
		constraint string
		expected   error
	}{
		{"Phone number taken", "users_phone_number_key", ErrPhoneNumberTaken},
		{"Nickname taken", "users_nickname_key", ErrNicknameTaken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			poolMock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer poolMock.Close()

			user := newTestUser()
			poolMock.ExpectQuery(insertUser).
				WithArgs(user.PhoneNumber, user.Gender, user.Nickname, user.Birth, user.Region, user.Password, user.Introduction, pgtype.Text{}).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})

			_, err = NewUserDirectory().Create(context.Background(), poolMock, user)
			assert.ErrorIs(t, err, tc.expected)
			assert.NoError(t, poolMock.ExpectationsWereMet())
		})
	}

	t.Run("Created user gets its id", func(t *testing.T) {
		poolMock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer poolMock.Close()

		user := newTestUser()
		user.Email = "sunny@example.com"
		poolMock.ExpectQuery(insertUser).
			WithArgs(user.PhoneNumber, user.Gender, user.Nickname, user.Birth, user.Region, user.Password, user.Introduction,
				pgtype.Text{String: "sunny@example.com", Valid: true}).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "created_at"}).AddRow(int64(7), time.Now()))

		id, err := NewUserDirectory().Create(context.Background(), poolMock, user)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, int64(7), user.ID)
		assert.NoError(t, poolMock.ExpectationsWereMet())
	})
}

// TestUserDirectoryLookups tests lookups by id, phone number and nickname
func TestUserDirectoryLookups(t *testing.T) {
	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer poolMock.Close()

	directory := NewUserDirectory()
	ctx := context.Background()

	poolMock.ExpectQuery(selectUserById).WithArgs(int64(7)).WillReturnRows(userRows(7, "receiver", "receiver@example.com"))
	poolMock.ExpectQuery(selectUserById).WithArgs(int64(8)).WillReturnRows(pgxmock.NewRows(userColumnNames))
	poolMock.ExpectQuery(selectUserPhone).WithArgs("010-1234-5678").WillReturnRows(userRows(7, "receiver", ""))
	poolMock.ExpectQuery(nicknameExists).WithArgs("receiver").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	user, err := directory.FindById(ctx, poolMock, 7)
	require.NoError(t, err)
	assert.Equal(t, "receiver", user.Nickname)
	assert.Equal(t, "receiver@example.com", user.Email)

	_, err = directory.FindById(ctx, poolMock, 8)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err = directory.FindByPhoneNumber(ctx, poolMock, "010-1234-5678")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)

	exists, err := directory.NicknameExists(ctx, poolMock, "receiver")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, poolMock.ExpectationsWereMet())
}

// TestUserDirectoryProfiles tests nearby users and the order of resolved profiles
func TestUserDirectoryProfiles(t *testing.T) {
	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer poolMock.Close()

	directory := NewUserDirectory()
	ctx := context.Background()

	poolMock.ExpectQuery(selectNearby).WithArgs(int64(7)).WillReturnRows(
		pgxmock.NewRows(profileColumnNames).
			AddRow(int64(11), "MALE", "walker", "1947-01-01", "Seoul", "", nil, nil).
			AddRow(int64(42), "MALE", "sender", "1948-11-24", "Seoul", "Hi", "https://cdn.example.com/a.png", "profiles/a.png"))
	poolMock.ExpectQuery(selectProfilesByIds).WithArgs([]int64{42, 11, 42}).WillReturnRows(profileRows(11, 42))

	nearby, err := directory.FindNearby(ctx, poolMock, 7)
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Nil(t, nearby[0].Image)
	require.NotNil(t, nearby[1].Image)
	assert.Equal(t, "profiles/a.png", nearby[1].Image.FileName)

	profiles, err := directory.FindProfiles(ctx, poolMock, []int64{42, 11, 42})
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, int64(42), profiles[0].UserID)
	assert.Equal(t, int64(11), profiles[1].UserID)
	assert.Equal(t, int64(42), profiles[2].UserID)

	empty, err := directory.FindProfiles(ctx, poolMock, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.NoError(t, poolMock.ExpectationsWereMet())
}

// TestUserDirectoryUpdateInfo tests partial updates of a user
func TestUserDirectoryUpdateInfo(t *testing.T) {
	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer poolMock.Close()

	directory := NewUserDirectory()
	ctx := context.Background()
	nickname := "moon"
	region := "Busan"
	var none *string

	poolMock.ExpectExec(updateUser).WithArgs(int64(7), none, none, &nickname, none, &region, none).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	poolMock.ExpectExec(updateUser).WithArgs(int64(7), none, none, &nickname, none, none, none).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_nickname_key"})
	poolMock.ExpectExec(updateUser).WithArgs(int64(8), none, none, none, none, &region, none).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, directory.UpdateInfo(ctx, poolMock, 7, &schemas.UserInfoPatch{Nickname: &nickname, Region: &region}))
	assert.ErrorIs(t, directory.UpdateInfo(ctx, poolMock, 7, &schemas.UserInfoPatch{Nickname: &nickname}), ErrNicknameTaken)
	assert.ErrorIs(t, directory.UpdateInfo(ctx, poolMock, 8, &schemas.UserInfoPatch{Region: &region}), ErrUserNotFound)

	assert.NoError(t, poolMock.ExpectationsWereMet())
}

// TestUserDirectoryProfileImage tests storing, loading and removing the profile image
func TestUserDirectoryProfileImage(t *testing.T) {
	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer poolMock.Close()

	directory := NewUserDirectory()
	ctx := context.Background()

	poolMock.ExpectExec(upsertProfile).WithArgs(int64(7), "https://cdn.example.com/b.png", "profiles/b.png").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	poolMock.ExpectQuery(selectProfile).WithArgs(int64(7)).WillReturnRows(
		pgxmock.NewRows([]string{"profile_id", "user_id", "image_url", "file_name"}).
			AddRow(int64(3), int64(7), "https://cdn.example.com/b.png", "profiles/b.png"))
	poolMock.ExpectExec(deleteProfile).WithArgs(int64(7)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	poolMock.ExpectQuery(selectProfile).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"profile_id", "user_id", "image_url", "file_name"}))

	require.NoError(t, directory.SaveProfileImage(ctx, poolMock, 7, "https://cdn.example.com/b.png", "profiles/b.png"))

	profile, err := directory.FindProfileImage(ctx, poolMock, 7)
	require.NoError(t, err)
	assert.Equal(t, "profiles/b.png", profile.FileName)

	deleted, err := directory.DeleteProfileImage(ctx, poolMock, 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = directory.FindProfileImage(ctx, poolMock, 7)
	assert.ErrorIs(t, err, ErrProfileImageNotFound)

	assert.NoError(t, poolMock.ExpectationsWereMet())
}
