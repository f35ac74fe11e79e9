package token

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// RevocationList remembers the ids of access tokens revoked at logout until they
// would have expired anyway.
type RevocationList interface {
	Revoke(jti string)
	IsRevoked(jti string) bool
}

// InMemoryRevocationList keeps up to size revoked ids for ttl each.
type InMemoryRevocationList struct {
	revoked *lru.LRU[string, struct{}]
}

func NewInMemoryRevocationList(size int, ttl time.Duration) *InMemoryRevocationList {
	return &InMemoryRevocationList{
		revoked: lru.NewLRU[string, struct{}](size, nil, ttl),
	}
}

func (c *InMemoryRevocationList) Revoke(jti string) {
	c.revoked.Add(jti, struct{}{})
}

func (c *InMemoryRevocationList) IsRevoked(jti string) bool {
	return c.revoked.Contains(jti)
}
