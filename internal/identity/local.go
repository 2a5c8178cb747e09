package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	localIssuer       = "onlinetravel-local"
	minPasswordLength = 6
)

// Local is an in-process provider that mimics the Firebase responses: status
// 400 with EMAIL_EXISTS, EMAIL_NOT_FOUND, INVALID_PASSWORD or INVALID_ID_TOKEN.
// Tokens are HS256 JWTs, so Local also verifies them for the memory backend.
type Local struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu      sync.RWMutex
	byEmail map[string]*localAccount
	byUID   map[string]*localAccount
}

type localAccount struct {
	uid   string
	email string
	hash  []byte
}

type localClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LocalOption customizes a Local provider.
type LocalOption func(*Local)

// WithClock replaces time.Now, for tests that need tokens to expire.
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) { l.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) LocalOption {
	return func(l *Local) { l.cost = cost }
}

// NewLocal creates a provider signing tokens with secret, valid for ttl. An
// empty secret is replaced by a random one, so tokens do not survive a restart.
func NewLocal(secret []byte, ttl time.Duration, opts ...LocalOption) (*Local, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := &Local{
		secret:  secret,
		ttl:     ttl,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		byEmail: make(map[string]*localAccount),
		byUID:   make(map[string]*localAccount),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Local) SignUp(_ context.Context, email, password string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, badRequest("INVALID_EMAIL")
	}
	if len(password) < minPasswordLength {
		return Account{}, badRequest("WEAK_PASSWORD : Password should be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return Account{}, &StatusError{Message: "hash password: " + err.Error(), Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byEmail[email]; ok {
		return Account{}, badRequest("EMAIL_EXISTS")
	}
	acc := &localAccount{uid: uuid.NewString(), email: email, hash: hash}
	l.byEmail[email] = acc
	l.byUID[acc.uid] = acc

	token, err := l.issue(acc)
	if err != nil {
		return Account{}, err
	}
	return Account{UID: acc.uid, Token: token, Email: email}, nil
}

func (l *Local) SignIn(_ context.Context, email, password string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	l.mu.RLock()
	acc, ok := l.byEmail[email]
	l.mu.RUnlock()
	if !ok {
		return Account{}, badRequest("EMAIL_NOT_FOUND")
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Account{}, badRequest("INVALID_PASSWORD")
	}

	token, err := l.issue(acc)
	if err != nil {
		return Account{}, err
	}
	return Account{UID: acc.uid, Token: token, Email: acc.email}, nil
}

func (l *Local) Lookup(ctx context.Context, token string) (Account, error) {
	uid, err := l.Verify(ctx, token)
	if err != nil {
		return Account{}, &StatusError{Code: http.StatusBadRequest, Message: "INVALID_ID_TOKEN", Err: err}
	}
	l.mu.RLock()
	acc, ok := l.byUID[uid]
	l.mu.RUnlock()
	if !ok {
		return Account{}, badRequest("USER_NOT_FOUND")
	}
	return Account{UID: acc.uid, Token: token, Email: acc.email}, nil
}

// Verify implements db.TokenVerifier.
func (l *Local) Verify(_ context.Context, token string) (string, error) {
	claims := &localClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return l.secret, nil
	}, jwt.WithIssuer(localIssuer), jwt.WithTimeFunc(l.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func (l *Local) issue(acc *localAccount) (string, error) {
	now := l.now()
	claims := localClaims{
		Email: acc.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.uid,
			Issuer:    localIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func badRequest(msg string) *StatusError {
	return &StatusError{Code: http.StatusBadRequest, Message: msg}
}
