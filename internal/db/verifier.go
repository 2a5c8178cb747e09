package db

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"
	gocache "github.com/patrickmn/go-cache"
)

// maxVerifiedAge bounds how long a verified token is trusted without asking Firebase again.
const maxVerifiedAge = 5 * time.Minute

// IDTokenVerifier is the part of *auth.Client the verifier needs.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens and remembers the result until
// the token expires or maxVerifiedAge passes, whichever comes first.
type FirebaseVerifier struct {
	client IDTokenVerifier
	cache  *gocache.Cache
	now    func() time.Time
}

func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{
		client: client,
		cache:  gocache.New(maxVerifiedAge, 2*maxVerifiedAge),
		now:    time.Now,
	}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	if uid, ok := v.cache.Get(token); ok {
		return uid.(string), nil
	}
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}
	ttl := time.Unix(tok.Expires, 0).Sub(v.now())
	if ttl > maxVerifiedAge {
		ttl = maxVerifiedAge
	}
	if ttl > 0 {
		v.cache.Set(token, tok.UID, ttl)
	}
	return tok.UID, nil
}
