package session

import (
	"encoding/json"
	"strings"
)

// record is the durable shape. It is written only while authenticated;
// unknown fields are ignored when reading.
type record struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            *recordUser `json:"user"`
}

type recordUser struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	DisplayPicture *string `json:"displayPicture"`
}

func encodeRecord(u User) ([]byte, error) {
	return json.Marshal(record{
		IsAuthenticated: true,
		User: &recordUser{
			Name:           u.Name,
			Email:          u.Email,
			DisplayPicture: u.DisplayPicture,
		},
	})
}

func decodeRecord(data []byte) (User, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return User{}, &StorageCorruptionError{Reason: "unparsable", Err: err}
	}
	switch {
	case !rec.IsAuthenticated:
		return User{}, &StorageCorruptionError{Reason: "isAuthenticated is not true"}
	case rec.User == nil:
		return User{}, &StorageCorruptionError{Reason: "missing user"}
	case strings.TrimSpace(rec.User.Email) == "":
		return User{}, &StorageCorruptionError{Reason: "missing user email"}
	}
	return User{
		Email:          rec.User.Email,
		Name:           rec.User.Name,
		DisplayPicture: rec.User.DisplayPicture,
	}, nil
}
