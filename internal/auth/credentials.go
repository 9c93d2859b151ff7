package auth

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Usernames double as transcript file name prefixes, so they are restricted
// to a filesystem-safe alphabet. Underscores are excluded because they
// separate the username from the timestamp in session ids.
var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*$`)

// UserEntry is one account in the credentials file. Password holds a bcrypt
// hash, never the plaintext password.
type UserEntry struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// CookieConfig names the session cookie and carries the token signing key.
type CookieConfig struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// Credentials mirrors the credentials file layout: accounts keyed by
// username under credentials.usernames, plus a cookie section.
type Credentials struct {
	Credentials struct {
		Usernames map[string]UserEntry `yaml:"usernames"`
	} `yaml:"credentials"`
	Cookie CookieConfig `yaml:"cookie"`
}

func (c *Credentials) user(username string) (UserEntry, bool) {
	entry, ok := c.Credentials.Usernames[username]
	return entry, ok
}

// LoadCredentials reads and validates the YAML credentials file at path.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	if len(creds.Credentials.Usernames) == 0 {
		return nil, ErrNoUsers
	}

	for username, entry := range creds.Credentials.Usernames {
		if !usernamePattern.MatchString(username) {
			return nil, fmt.Errorf("invalid username %q: must match %s", username, usernamePattern)
		}
		if entry.Password == "" {
			return nil, fmt.Errorf("user %q has no password hash", username)
		}
	}

	return &creds, nil
}
