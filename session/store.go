// Package session keeps the signed-in user's token and profile for the lifetime of the
// process, optionally sealed on disk between runs.
package session

import "errors"

// ErrWrongPassphrase is returned when a sealed session cannot be opened.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted session")

// Profile is the signed-in user as last returned by the backend.
type Profile struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email,omitempty"`
	CountryCode          string `json:"country_code"`
	PhoneNumber          string `json:"phone_number"`
	Image                string `json:"image,omitempty"`
	Language             string `json:"language,omitempty"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// Store holds the authentication token and profile. Implementations are safe for
// concurrent use.
type Store interface {
	Token() string
	SetToken(token string) error
	Profile() (Profile, bool)
	SetProfile(p Profile) error
	// Clear forgets everything, e.g. on logout.
	Clear() error
}

type document struct {
	Token   string   `json:"token,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

func (d document) profile() (Profile, bool) {
	if d.Profile == nil {
		return Profile{}, false
	}
	return *d.Profile, true
}
