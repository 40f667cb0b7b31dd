package session

import (
	"encoding/json"
	"fmt"
)

// EncodeUser serializes u for the persisted user slot.
func EncodeUser(u User) (string, error) {
	if err := u.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("session: encode user: %w", err)
	}
	return string(data), nil
}

// DecodeUser parses a persisted user payload. Any payload that does not
// describe a valid identity yields ErrMalformedUser.
func DecodeUser(raw string) (User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrMalformedUser, err)
	}
	if err := u.Validate(); err != nil {
		return User{}, fmt.Errorf("%w: missing id or unknown userType %q", ErrMalformedUser, u.UserType)
	}
	return u, nil
}
