package validate

import (
	"fmt"
	"regexp"
)

// UserID must be lowercase letters, digits, hyphen or underscore, 1-40 chars.
var userIdRx = regexp.MustCompile(`^[a-z0-9_\-]{1,40}$`)

// birthdayRx is a loose shape check; range validation happens in the
// zodiac resolver.
var birthdayRx = regexp.MustCompile(`^\d{1,2}/\d{1,2}$`)

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// UserID validates a path or body user identifier.
func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIdRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIdRx.String())
	}
	return nil
}

// Birthday validates the MM/DD shape. An empty birthday is allowed on
// profile writes; generation rejects it later with guidance.
func Birthday(v string) error {
	if v == "" {
		return nil
	}
	if !birthdayRx.MatchString(v) {
		return fmt.Errorf("birthday must be MM/DD")
	}
	return nil
}

// UpsertProfile validates input for writing a profile.
func UpsertProfile(userID, name, birthday string) error {
	if err := UserID(userID); err != nil {
		return err
	}
	if err := MaxLen("name", name, 100); err != nil {
		return err
	}
	return Birthday(birthday)
}
