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

const userColumns = "user_id, phone_number, gender, nickname, birth, region, password, introduction, email, created_at"

// UserDirectory stores users and their profile images and resolves the profiles
// shown to other users.
type UserDirectory interface {
	Create(ctx context.Context, q interfaces.Querier, user *schemas.User) (int64, error)
	FindById(ctx context.Context, q interfaces.Querier, userId int64) (*schemas.User, error)
	FindByPhoneNumber(ctx context.Context, q interfaces.Querier, phoneNumber string) (*schemas.User, error)
	NicknameExists(ctx context.Context, q interfaces.Querier, nickname string) (bool, error)
	FindNearby(ctx context.Context, q interfaces.Querier, userId int64) ([]*schemas.UserProfile, error)
	FindProfiles(ctx context.Context, q interfaces.Querier, userIds []int64) ([]*schemas.UserProfile, error)
	UpdateInfo(ctx context.Context, q interfaces.Querier, userId int64, patch *schemas.UserInfoPatch) error
	SaveProfileImage(ctx context.Context, q interfaces.Querier, userId int64, imageURL, fileName string) error
	FindProfileImage(ctx context.Context, q interfaces.Querier, userId int64) (*schemas.Profile, error)
	DeleteProfileImage(ctx context.Context, q interfaces.Querier, userId int64) (bool, error)
}

type PostgresUserDirectory struct{}

func NewUserDirectory() *PostgresUserDirectory {
	return &PostgresUserDirectory{}
}

// Create inserts the user and fills in its id and creation time.
func (d *PostgresUserDirectory) Create(ctx context.Context, q interfaces.Querier, user *schemas.User) (int64, error) {
	queryString := `INSERT INTO users (phone_number, gender, nickname, birth, region, password, introduction, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING user_id, created_at`

	email := pgtype.Text{String: user.Email, Valid: user.Email != ""}
	err := q.QueryRow(ctx, queryString, user.PhoneNumber, user.Gender, user.Nickname, user.Birth,
		user.Region, user.Password, user.Introduction, email).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return 0, mapUserConstraintError(err, "create user")
	}

	return user.ID, nil
}

func (d *PostgresUserDirectory) FindById(ctx context.Context, q interfaces.Querier, userId int64) (*schemas.User, error) {
	queryString := "SELECT " + userColumns + " FROM users WHERE user_id = $1"
	return scanUser(q.QueryRow(ctx, queryString, userId))
}

func (d *PostgresUserDirectory) FindByPhoneNumber(ctx context.Context, q interfaces.Querier, phoneNumber string) (*schemas.User, error) {
	queryString := "SELECT " + userColumns + " FROM users WHERE phone_number = $1"
	return scanUser(q.QueryRow(ctx, queryString, phoneNumber))
}

func (d *PostgresUserDirectory) NicknameExists(ctx context.Context, q interfaces.Querier, nickname string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE nickname = $1)", nickname).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check nickname: %w", err)
	}

	return exists, nil
}

// FindNearby returns the other users living in the same region as the given user.
func (d *PostgresUserDirectory) FindNearby(ctx context.Context, q interfaces.Querier, userId int64) ([]*schemas.UserProfile, error) {
	queryString := `SELECT u.user_id, u.gender, u.nickname, u.birth, u.region, u.introduction, p.image_url, p.file_name
		FROM users u LEFT JOIN profiles p ON p.user_id = u.user_id
		WHERE u.region = (SELECT region FROM users WHERE user_id = $1) AND u.user_id <> $1
		ORDER BY u.user_id`

	rows, err := q.Query(ctx, queryString, userId)
	if err != nil {
		return nil, fmt.Errorf("find users near %d: %w", userId, err)
	}

	return collectProfiles(rows)
}

// FindProfiles resolves the profiles of the given users in the order of userIds,
// ids may repeat. Ids without a user are skipped.
func (d *PostgresUserDirectory) FindProfiles(ctx context.Context, q interfaces.Querier, userIds []int64) ([]*schemas.UserProfile, error) {
	profiles := make([]*schemas.UserProfile, 0, len(userIds))
	if len(userIds) == 0 {
		return profiles, nil
	}

	queryString := `SELECT u.user_id, u.gender, u.nickname, u.birth, u.region, u.introduction, p.image_url, p.file_name
		FROM users u LEFT JOIN profiles p ON p.user_id = u.user_id
		WHERE u.user_id = ANY($1)`

	rows, err := q.Query(ctx, queryString, userIds)
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}

	found, err := collectProfiles(rows)
	if err != nil {
		return nil, err
	}

	byId := make(map[int64]*schemas.UserProfile, len(found))
	for _, profile := range found {
		byId[profile.UserID] = profile
	}

	for _, id := range userIds {
		if profile, ok := byId[id]; ok {
			profiles = append(profiles, profile)
		}
	}

	return profiles, nil
}

// UpdateInfo applies the non-nil fields of patch to the user.
func (d *PostgresUserDirectory) UpdateInfo(ctx context.Context, q interfaces.Querier, userId int64, patch *schemas.UserInfoPatch) error {
	queryString := `UPDATE users SET
		phone_number = COALESCE($2, phone_number),
		gender = COALESCE($3, gender),
		nickname = COALESCE($4, nickname),
		birth = COALESCE($5, birth),
		region = COALESCE($6, region),
		introduction = COALESCE($7, introduction)
		WHERE user_id = $1`

	tag, err := q.Exec(ctx, queryString, userId, patch.PhoneNumber, patch.Gender, patch.Nickname,
		patch.Birth, patch.Region, patch.Introduction)
	if err != nil {
		return mapUserConstraintError(err, "update user")
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SaveProfileImage sets the profile image of the user, replacing the previous one.
func (d *PostgresUserDirectory) SaveProfileImage(ctx context.Context, q interfaces.Querier, userId int64, imageURL, fileName string) error {
	queryString := `INSERT INTO profiles (user_id, image_url, file_name) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET image_url = EXCLUDED.image_url, file_name = EXCLUDED.file_name`

	if _, err := q.Exec(ctx, queryString, userId, imageURL, fileName); err != nil {
		return fmt.Errorf("save profile image of user %d: %w", userId, err)
	}

	return nil
}

func (d *PostgresUserDirectory) FindProfileImage(ctx context.Context, q interfaces.Querier, userId int64) (*schemas.Profile, error) {
	queryString := "SELECT profile_id, user_id, image_url, file_name FROM profiles WHERE user_id = $1"

	profile := &schemas.Profile{}
	err := q.QueryRow(ctx, queryString, userId).Scan(&profile.ID, &profile.UserID, &profile.ImageURL, &profile.FileName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileImageNotFound
		}
		return nil, fmt.Errorf("find profile image of user %d: %w", userId, err)
	}

	return profile, nil
}

func (d *PostgresUserDirectory) DeleteProfileImage(ctx context.Context, q interfaces.Querier, userId int64) (bool, error) {
	tag, err := q.Exec(ctx, "DELETE FROM profiles WHERE user_id = $1", userId)
	if err != nil {
		return false, fmt.Errorf("delete profile image of user %d: %w", userId, err)
	}

	return tag.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (*schemas.User, error) {
	user := &schemas.User{}
	var email pgtype.Text

	err := row.Scan(&user.ID, &user.PhoneNumber, &user.Gender, &user.Nickname, &user.Birth,
		&user.Region, &user.Password, &user.Introduction, &email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Email = email.String
	return user, nil
}

func collectProfiles(rows pgx.Rows) ([]*schemas.UserProfile, error) {
	defer rows.Close()

	profiles := make([]*schemas.UserProfile, 0)
	for rows.Next() {
		profile := &schemas.UserProfile{}
		var imageURL, fileName pgtype.Text

		err := rows.Scan(&profile.UserID, &profile.Gender, &profile.Nickname, &profile.Birth,
			&profile.Region, &profile.Introduction, &imageURL, &fileName)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}

		if imageURL.Valid {
			profile.Image = &schemas.Profile{UserID: profile.UserID, ImageURL: imageURL.String, FileName: fileName.String}
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	return profiles, nil
}

// mapUserConstraintError translates unique violations on the users table into
// the matching sentinel errors.
func mapUserConstraintError(err error, action string) error {
	code, constraint, ok := pgErrorCode(err)
	if ok && code == uniqueViolationCode {
		switch constraint {
		case "users_phone_number_key":
			return ErrPhoneNumberTaken
		case "users_nickname_key":
			return ErrNicknameTaken
		}
	}

	return fmt.Errorf("%s: %w", action, err)
}
