package managers

import (
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var (
	userColumnNames     = []string{"user_id", "phone_number", "gender", "nickname", "birth", "region", "password", "introduction", "email", "created_at"}
	profileColumnNames  = []string{"user_id", "gender", "nickname", "birth", "region", "introduction", "image_url", "file_name"}
	matchingColumnNames = []string{"matching_id", "sender_id", "receiver_id", "success", "created_at"}
)

func userRows(id int64, nickname, email string) *pgxmock.Rows {
	return pgxmock.NewRows(userColumnNames).
		AddRow(id, "010-1234-5678", "FEMALE", nickname, "1950-03-01", "Seoul", "$2a$10$hash", "Hello", email, time.Now())
}

func profileRows(ids ...int64) *pgxmock.Rows {
	rows := pgxmock.NewRows(profileColumnNames)
	for _, id := range ids {
		rows.AddRow(id, "MALE", nicknameOf(id), "1948-11-24", "Seoul", "Hi", "https://cdn.example.com/profiles/"+nicknameOf(id)+".png", "profiles/"+nicknameOf(id)+".png")
	}
	return rows
}

func matchingRows(id, senderId, receiverId int64, success bool) *pgxmock.Rows {
	return pgxmock.NewRows(matchingColumnNames).AddRow(id, senderId, receiverId, success, time.Now())
}

func nicknameOf(id int64) string {
	switch id {
	case 42:
		return "sender"
	case 7:
		return "receiver"
	default:
		return "user"
	}
}
