package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	issuer          = "nemo-storefront"
)

type account struct {
	user User
	hash []byte
}

type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// MemoryProvider keeps accounts in process memory and issues HS256 tokens.
// Signed-out token ids are remembered until the token would have expired.
type MemoryProvider struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu      sync.RWMutex
	users   map[string]*account
	byEmail map[string]string
	revoked map[string]time.Time
}

type MemoryOption func(*MemoryProvider)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) MemoryOption {
	return func(p *MemoryProvider) {
		p.cost = cost
	}
}

func WithClock(now func() time.Time) MemoryOption {
	return func(p *MemoryProvider) {
		p.now = now
	}
}

func NewMemoryProvider(secret string, ttl time.Duration, opts ...MemoryOption) (*MemoryProvider, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	p := &MemoryProvider{
		secret:  []byte(secret),
		ttl:     ttl,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		users:   make(map[string]*account),
		byEmail: make(map[string]string),
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *MemoryProvider) SignUp(_ context.Context, email, password, displayName string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	if _, taken := p.byEmail[email]; taken {
		p.mu.Unlock()
		return nil, ErrEmailTaken
	}
	acc := &account{
		user: User{
			UID:         uuid.NewString(),
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
			CreatedAt:   p.now().UTC(),
		},
		hash: hash,
	}
	p.users[acc.user.UID] = acc
	p.byEmail[email] = acc.user.UID
	p.mu.Unlock()

	return p.issue(acc.user)
}

func (p *MemoryProvider) SignIn(_ context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	p.mu.RLock()
	acc, ok := p.users[p.byEmail[email]]
	var user User
	var hash []byte
	if ok {
		user, hash = acc.user, acc.hash
	}
	p.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.issue(user)
}

func (p *MemoryProvider) SignOut(_ context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	p.revoked[c.ID] = c.ExpiresAt.Time
	return nil
}

func (p *MemoryProvider) UpdateProfile(_ context.Context, uid, displayName, email string) (*User, error) {
	var normalized string
	if strings.TrimSpace(email) != "" {
		var err error
		if normalized, err = normalizeEmail(email); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	if normalized != "" && normalized != acc.user.Email {
		if _, taken := p.byEmail[normalized]; taken {
			return nil, ErrEmailTaken
		}
		delete(p.byEmail, acc.user.Email)
		p.byEmail[normalized] = uid
		acc.user.Email = normalized
	}
	if name := strings.TrimSpace(displayName); name != "" {
		acc.user.DisplayName = name
	}

	u := acc.user
	return &u, nil
}

func (p *MemoryProvider) Verify(_ context.Context, token string) (*User, error) {
	c, err := p.parse(token)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, revoked := p.revoked[c.ID]; revoked {
		return nil, ErrInvalidToken
	}
	acc, ok := p.users[c.Subject]
	if !ok {
		return nil, ErrInvalidToken
	}
	u := acc.user
	return &u, nil
}

func (p *MemoryProvider) issue(user User) (*Session, error) {
	now := p.now()
	expires := now.Add(p.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Name:  user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.UID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expires.UTC(), User: user}, nil
}

func (p *MemoryProvider) parse(token string) (*claims, error) {
	c := &claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.ID == "" || c.Subject == "" || c.ExpiresAt == nil || !c.VerifyIssuer(issuer, true) {
		return nil, ErrInvalidToken
	}
	// jwt/v4 validates exp against the wall clock; an injected clock must agree
	if !c.VerifyExpiresAt(p.now(), true) {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (p *MemoryProvider) pruneLocked() {
	now := p.now()
	for id, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, id)
		}
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
