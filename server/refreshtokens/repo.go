package refreshtokens

import (
	"time"
)

// StoredRefreshToken is the server side record of a refresh token. The client only
// ever sees Token, an opaque random string.
type StoredRefreshToken struct {
	Token          string
	UserID         int64
	ClientUsername string // Client account selected at login
	Iat            time.Time
}

// Repo stores refresh token records keyed by the token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	DeleteByUserID(userID int64) error
}
