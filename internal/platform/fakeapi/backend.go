// Package fakeapi is an in-memory dashboard backend served with gin. It speaks
// the same endpoints and envelopes as the real API so clients can be exercised
// end to end in tests and local demos.
package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	userdomain "github.com/Apurer/admin-dashboard/internal/domains/users/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidMailToken   = errors.New("invalid or expired link")
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = time.Hour

// MailTokenTTL is the lifetime of reset and verification links.
const MailTokenTTL = 24 * time.Hour

// MailPurpose tells reset links from verification links.
type MailPurpose string

const (
	MailPasswordReset MailPurpose = "password-reset"
	MailVerifyEmail   MailPurpose = "verify-email"
)

type mailToken struct {
	email   string
	purpose MailPurpose
	expires time.Time
}

// Account is a login known to the backend.
type Account struct {
	Identity authdomain.Identity
	Password string
	Verified bool
}

// Backend holds accounts, issued tokens, and managed users.
type Backend struct {
	mu       sync.RWMutex
	accounts map[string]Account
	revoked  map[string]struct{}
	mail     map[string]mailToken
	users    []userdomain.User
	avatars  map[userdomain.ID][]byte
	nextID   int
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewBackend constructs an empty backend with a random signing secret.
func NewBackend() *Backend {
	return &Backend{
		accounts: map[string]Account{},
		revoked:  map[string]struct{}{},
		mail:     map[string]mailToken{},
		avatars:  map[userdomain.ID][]byte{},
		nextID:   1,
		secret:   []byte(uuid.NewString()),
		ttl:      DefaultTokenTTL,
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (b *Backend) WithClock(now func() time.Time) {
	if now != nil {
		b.now = now
	}
}

// WithTokenTTL changes the lifetime of tokens issued from now on.
func (b *Backend) WithTokenTTL(ttl time.Duration) {
	b.ttl = ttl
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddAccount registers a login. An empty role is stored as is so clients can
// apply their own default.
func (b *Backend) AddAccount(identity authdomain.Identity, password string) authdomain.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addAccountLocked(identity, password)
}

func (b *Backend) addAccountLocked(identity authdomain.Identity, password string) authdomain.Identity {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.Email = strings.TrimSpace(identity.Email)
	b.accounts[normalizeEmail(identity.Email)] = Account{Identity: identity, Password: password}
	return identity
}

// Login checks the credentials and issues a token.
func (b *Backend) Login(_ context.Context, email, password string) (string, error) {
	b.mu.RLock()
	account, ok := b.accounts[normalizeEmail(email)]
	b.mu.RUnlock()
	if !ok || account.Password != password {
		return "", ErrInvalidCredentials
	}
	return b.issue(account.Identity.Email)
}

// Register creates an account and issues its first token.
func (b *Backend) Register(_ context.Context, form authdomain.SignUpForm) (string, error) {
	b.mu.Lock()
	key := normalizeEmail(form.Email)
	if _, exists := b.accounts[key]; exists {
		b.mu.Unlock()
		return "", ErrEmailTaken
	}
	identity := b.addAccountLocked(authdomain.Identity{
		Email:     form.Email,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Role:      authdomain.RoleUser,
	}, form.Password)
	b.mailLocked(identity.Email, MailVerifyEmail)
	b.mu.Unlock()
	return b.issue(identity.Email)
}

func (b *Backend) mailLocked(email string, purpose MailPurpose) string {
	token := uuid.NewString()
	b.mail[token] = mailToken{email: normalizeEmail(email), purpose: purpose, expires: b.now().Add(MailTokenTTL)}
	return token
}

// RequestPasswordReset mails a reset link to a known account. Unknown
// addresses are ignored and report false.
func (b *Backend) RequestPasswordReset(_ context.Context, email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[normalizeEmail(email)]; !ok {
		return false
	}
	b.mailLocked(email, MailPasswordReset)
	return true
}

// MailedToken returns the newest unexpired link token sent to email for
// purpose. It stands in for the inbox in tests and demos.
func (b *Backend) MailedToken(email string, purpose MailPurpose) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	key := normalizeEmail(email)
	var (
		latest  string
		expires time.Time
	)
	for token, m := range b.mail {
		if m.email == key && m.purpose == purpose && m.expires.After(expires) {
			latest, expires = token, m.expires
		}
	}
	return latest, latest != "" && b.now().Before(expires)
}

// redeemLocked consumes a link token. It returns the account email.
func (b *Backend) redeemLocked(token string, purpose MailPurpose) (string, error) {
	m, ok := b.mail[token]
	if !ok || m.purpose != purpose || !b.now().Before(m.expires) {
		return "", ErrInvalidMailToken
	}
	delete(b.mail, token)
	return m.email, nil
}

// ResetPassword sets a new password with a reset link token.
func (b *Backend) ResetPassword(_ context.Context, token, password string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	email, err := b.redeemLocked(token, MailPasswordReset)
	if err != nil {
		return err
	}
	account, ok := b.accounts[email]
	if !ok {
		return ErrInvalidMailToken
	}
	account.Password = password
	b.accounts[email] = account
	return nil
}

// VerifyEmail marks the account behind a verification link as verified.
func (b *Backend) VerifyEmail(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	email, err := b.redeemLocked(token, MailVerifyEmail)
	if err != nil {
		return err
	}
	account, ok := b.accounts[email]
	if !ok {
		return ErrInvalidMailToken
	}
	account.Verified = true
	b.accounts[email] = account
	return nil
}

// Verified reports whether the account behind email confirmed its address.
func (b *Backend) Verified(email string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accounts[normalizeEmail(email)].Verified
}

// IssueToken signs a token for email without checking a password.
func (b *Backend) IssueToken(email string) (string, error) {
	return b.issue(email)
}

func (b *Backend) issue(email string) (string, error) {
	now := b.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   normalizeEmail(email),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate resolves the identity behind a bearer token.
func (b *Backend) Authenticate(_ context.Context, token string) (authdomain.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.now))
	if err != nil || !parsed.Valid {
		return authdomain.Identity{}, ErrInvalidToken
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, gone := b.revoked[claims.ID]; gone {
		return authdomain.Identity{}, ErrInvalidToken
	}
	account, ok := b.accounts[claims.Subject]
	if !ok {
		return authdomain.Identity{}, ErrInvalidToken
	}
	return account.Identity, nil
}

// Revoke invalidates a token. Unknown or malformed tokens are ignored.
func (b *Backend) Revoke(_ context.Context, token string) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ID == "" {
		return
	}
	b.mu.Lock()
	b.revoked[claims.ID] = struct{}{}
	b.mu.Unlock()
}

// Seed appends users in order, assigning sequential ids where missing.
func (b *Backend) Seed(users ...userdomain.User) []userdomain.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]userdomain.User, 0, len(users))
	for _, u := range users {
		if u.ID == "" {
			u.ID = b.allocateIDLocked()
		}
		b.users = append(b.users, u)
		out = append(out, u)
	}
	return out
}

// ResetUsers drops every managed user and avatar and restarts id allocation.
// Accounts and revoked tokens are kept.
func (b *Backend) ResetUsers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = nil
	b.avatars = map[userdomain.ID][]byte{}
	b.nextID = 1
}

func (b *Backend) allocateIDLocked() userdomain.ID {
	id := userdomain.ID(strconv.Itoa(b.nextID))
	b.nextID++
	return id
}

// ListUsers filters by search, sorts, and returns one page plus the total
// number of matches.
func (b *Backend) ListUsers(_ context.Context, filters userdomain.Filters) userdomain.Page {
	filters = filters.Normalize()
	b.mu.RLock()
	matches := b.matchLocked(filters.Search)
	b.mu.RUnlock()

	if !filters.Sort.IsZero() {
		desc := filters.Sort.Order == userdomain.SortDesc
		field := filters.Sort.Field
		sort.SliceStable(matches, func(i, j int) bool {
			a, c := sortKey(matches[i], field), sortKey(matches[j], field)
			if desc {
				return a > c
			}
			return a < c
		})
	}

	total := len(matches)
	start := (filters.Page - 1) * filters.Limit
	if start > total {
		start = total
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}
	return userdomain.Page{List: append([]userdomain.User{}, matches[start:end]...), Total: total}
}

func (b *Backend) matchLocked(search string) []userdomain.User {
	matches := make([]userdomain.User, 0, len(b.users))
	needle := strings.ToLower(strings.TrimSpace(search))
	for _, u := range b.users {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) {
			matches = append(matches, u)
		}
	}
	return matches
}

// UserStats counts the users matching search by role and status.
func (b *Backend) UserStats(_ context.Context, search string) userdomain.Stats {
	b.mu.RLock()
	matches := b.matchLocked(search)
	b.mu.RUnlock()
	stats := userdomain.Stats{Total: len(matches), ByRole: map[string]int{}, ByStatus: map[string]int{}}
	for _, u := range matches {
		if u.Role != "" {
			stats.ByRole[u.Role]++
		}
		if u.Status != "" {
			stats.ByStatus[u.Status]++
		}
	}
	return stats
}

func sortKey(u userdomain.User, field string) string {
	switch field {
	case "email":
		return strings.ToLower(u.Email)
	case "role":
		return u.Role
	case "status":
		return u.Status
	case "id":
		return fmt.Sprintf("%020s", string(u.ID))
	default:
		return strings.ToLower(u.Name)
	}
}

// GetUser returns a single user.
func (b *Backend) GetUser(_ context.Context, id userdomain.ID) (userdomain.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, u := range b.users {
		if u.ID == id {
			return u, nil
		}
	}
	return userdomain.User{}, ErrUserNotFound
}

// CreateUser stores a new user at the front of the collection.
func (b *Backend) CreateUser(_ context.Context, in userdomain.Input) userdomain.User {
	in = in.Normalize()
	now := b.now().UTC()
	b.mu.Lock()
	defer b.mu.Unlock()
	u := userdomain.User{
		ID:        b.allocateIDLocked(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      in.Role,
		Status:    in.Status,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	b.users = append([]userdomain.User{u}, b.users...)
	return u
}

// UpdateUser replaces the editable fields of an existing user.
func (b *Backend) UpdateUser(_ context.Context, id userdomain.ID, in userdomain.Input) (userdomain.User, error) {
	in = in.Normalize()
	now := b.now().UTC()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, u := range b.users {
		if u.ID != id {
			continue
		}
		u.Name, u.Email, u.Phone, u.Role, u.Status = in.Name, in.Email, in.Phone, in.Role, in.Status
		u.UpdatedAt = &now
		b.users[i] = u
		return u, nil
	}
	return userdomain.User{}, ErrUserNotFound
}

// SetUserStatus changes the status of an existing user.
func (b *Backend) SetUserStatus(_ context.Context, id userdomain.ID, status string) (userdomain.User, error) {
	now := b.now().UTC()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, u := range b.users {
		if u.ID != id {
			continue
		}
		u.Status = status
		u.UpdatedAt = &now
		b.users[i] = u
		return u, nil
	}
	return userdomain.User{}, ErrUserNotFound
}

// DeleteUsers removes every listed user and reports how many existed.
func (b *Backend) DeleteUsers(_ context.Context, ids ...userdomain.ID) int {
	drop := make(map[userdomain.ID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.users[:0]
	removed := 0
	for _, u := range b.users {
		if _, ok := drop[u.ID]; ok {
			removed++
			delete(b.avatars, u.ID)
			continue
		}
		kept = append(kept, u)
	}
	b.users = kept
	return removed
}

// SetAvatar stores image bytes for a user and points its avatar URL at them.
func (b *Backend) SetAvatar(_ context.Context, id userdomain.ID, data []byte) (userdomain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, u := range b.users {
		if u.ID != id {
			continue
		}
		b.avatars[id] = append([]byte(nil), data...)
		u.AvatarURL = fmt.Sprintf("/users/%s/avatar", id)
		b.users[i] = u
		return u, nil
	}
	return userdomain.User{}, ErrUserNotFound
}

// Avatar returns the stored image bytes of a user.
func (b *Backend) Avatar(_ context.Context, id userdomain.ID) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.avatars[id]
	return data, ok
}
