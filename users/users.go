package users

import (
	"strings"
	"time"

	"github.com/jrsteele09/fnb-console/tenants"
	"golang.org/x/crypto/bcrypt"
)

// ClientAccount is a restaurant group a user can act for.
type ClientAccount struct {
	ClientID       int64  `json:"client_id"`
	ClientUsername string `json:"client_username"` // Login name of the client account, e.g. "NEWHOUSE"
	Alias          string `json:"alias"`
}

type User struct {
	ID           int64           `json:"id,omitempty"`
	Username     string          `json:"username,omitempty"`
	PasswordHash string          `json:"-"` // never serialize
	Clients      []ClientAccount `json:"clients,omitempty"`
	Permissions  map[string]any  `json:"permissions,omitempty"` // Opaque map handed to the console
	Blocked      bool            `json:"blocked,omitempty"`
	LastLogin    time.Time       `json:"last_login,omitempty"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword reports whether password matches the user's hash.
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// Client returns the client account named clientUsername, compared case-insensitively.
// An empty name selects the user's first account.
func (u *User) Client(clientUsername string) (*ClientAccount, bool) {
	if len(u.Clients) == 0 {
		return nil, false
	}
	if clientUsername == "" {
		return &u.Clients[0], true
	}
	for i := range u.Clients {
		if strings.EqualFold(u.Clients[i].ClientUsername, clientUsername) {
			return &u.Clients[i], true
		}
	}
	return nil, false
}

// Tenant describes the user acting for client.
func (u *User) Tenant(client *ClientAccount) *tenants.Tenant {
	return &tenants.Tenant{
		Alias:          client.Alias,
		ClientUsername: client.ClientUsername,
		ClientID:       client.ClientID,
		UserID:         u.ID,
		Username:       u.Username,
	}
}
