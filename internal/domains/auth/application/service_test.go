package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/memory"
	"github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
	"github.com/Apurer/admin-dashboard/internal/state"
)

type fakeAPI struct {
	mu           sync.Mutex
	sessionCalls atomic.Int32
	session      domain.SessionResult
	sessionErr   error
	sessionGate  chan struct{}
	login        domain.LoginResult
	loginErr     error
	logoutErr    error
	register     domain.LoginResult
	lastCreds    domain.Credentials
	account      domain.AccountResult
	accountErr   error
	lastEmail    string
	lastReset    domain.PasswordReset
	lastVerify   string
}

func (f *fakeAPI) Session(context.Context) (domain.SessionResult, error) {
	f.sessionCalls.Add(1)
	if f.sessionGate != nil {
		<-f.sessionGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.sessionErr
}

func (f *fakeAPI) Login(_ context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCreds = creds
	return f.login, f.loginErr
}

func (f *fakeAPI) Logout(context.Context) error { return f.logoutErr }

func (f *fakeAPI) Register(context.Context, domain.SignUpForm) (domain.LoginResult, error) {
	return f.register, nil
}

func (f *fakeAPI) ForgotPassword(_ context.Context, email string) (domain.AccountResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEmail = email
	return f.account, f.accountErr
}

func (f *fakeAPI) ResetPassword(_ context.Context, reset domain.PasswordReset) (domain.AccountResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReset = reset
	return f.account, f.accountErr
}

func (f *fakeAPI) VerifyEmail(_ context.Context, token string) (domain.AccountResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVerify = token
	return f.account, f.accountErr
}

// tokenAPI answers the session call according to the token stored at the
// time the call starts. Calls for a gated token block until the gate closes.
type tokenAPI struct {
	*fakeAPI
	tokens   *memory.TokenStore
	sessions map[string]domain.SessionResult
	gates    map[string]chan struct{}
}

func (f *tokenAPI) Session(ctx context.Context) (domain.SessionResult, error) {
	f.sessionCalls.Add(1)
	token, _ := f.tokens.Token(ctx)
	if gate, ok := f.gates[token]; ok {
		<-gate
	}
	return f.sessions[token], nil
}

type harness struct {
	api    *fakeAPI
	tokens *memory.TokenStore
	store  *state.Store[State]
	svc    *Service
}

func newHarness(t *testing.T, api *fakeAPI, opts ...Option) *harness {
	t.Helper()
	tokens := memory.NewTokenStore()
	st := state.New[State](Reduce, InitialState())
	svc, err := NewService(api, tokens, st, opts...)
	require.NoError(t, err)
	return &harness{api: api, tokens: tokens, store: st, svc: svc}
}

func TestCheckSession_NoTokenSkipsNetwork(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	require.Equal(t, domain.StatusLoading, h.store.State().Status)

	require.Nil(t, h.svc.CheckSession(context.Background()))
	require.Equal(t, domain.StatusUnauthenticated, h.store.State().Status)
	require.Nil(t, h.store.State().User)
	require.Zero(t, h.api.sessionCalls.Load())
}

func TestLogin_AuthenticatesWithIdentity(t *testing.T) {
	api := &fakeAPI{
		login:   domain.LoginResult{Success: true, Token: "tok-1"},
		session: domain.SessionResult{Success: true, User: &domain.Identity{ID: "u1", Email: "ada@example.com", Name: "Ada"}},
	}
	h := newHarness(t, api)
	h.svc.CheckSession(context.Background())

	identity, err := h.svc.Login(context.Background(), " ada@example.com ", "secret1")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", api.lastCreds.Email)

	token, ok := h.tokens.Token(context.Background())
	require.True(t, ok)
	require.Equal(t, "tok-1", token)

	got := h.store.State()
	require.Equal(t, domain.StatusAuthenticated, got.Status)
	require.NotNil(t, got.User)
	assert.Equal(t, "u1", got.User.ID)
	assert.True(t, got.User.HasToken)
	assert.Equal(t, domain.RoleGuest, got.User.Role)
	assert.Equal(t, *got.User, *identity)
	assert.True(t, SelectAuthenticated(got))
}

func TestSignIn_ServerReportedFailure(t *testing.T) {
	api := &fakeAPI{login: domain.LoginResult{Success: false, Message: "Invalid credentials"}}
	h := newHarness(t, api)
	h.svc.CheckSession(context.Background())

	_, err := h.svc.SignIn(context.Background(), "ada@example.com", "secret1")
	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Invalid credentials", authErr.Message)

	got := h.store.State()
	require.Equal(t, domain.StatusUnauthenticated, got.Status)
	require.Nil(t, got.User)
	require.Equal(t, "Invalid credentials", got.Error)
	_, ok := h.tokens.Token(context.Background())
	require.False(t, ok)
}

func TestSignIn_MissingToken(t *testing.T) {
	h := newHarness(t, &fakeAPI{login: domain.LoginResult{Success: true}})
	_, err := h.svc.SignIn(context.Background(), "ada@example.com", "secret1")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestSignIn_ValidatesBeforeDispatch(t *testing.T) {
	api := &fakeAPI{}
	h := newHarness(t, api)
	var dispatched int
	h.store.Subscribe(func(State) { dispatched++ })

	_, err := h.svc.SignIn(context.Background(), "not-an-email", "123")
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "password")
	require.Zero(t, dispatched)
}

func TestCheckSession_SwallowsErrors(t *testing.T) {
	api := &fakeAPI{sessionErr: &apperrors.HTTPError{Status: 500}}
	h := newHarness(t, api)
	require.NoError(t, h.tokens.SetToken(context.Background(), "opaque"))

	require.Nil(t, h.svc.CheckSession(context.Background()))
	require.Equal(t, domain.StatusUnauthenticated, h.store.State().Status)

	api.sessionErr = nil
	api.session = domain.SessionResult{Success: false}
	require.Nil(t, h.svc.CheckSession(context.Background()))
	require.Equal(t, domain.StatusUnauthenticated, h.store.State().Status)
}

func TestCheckSession_ExpiredTokenIsCleared(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": now.Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	api := &fakeAPI{session: domain.SessionResult{Success: true, User: &domain.Identity{ID: "u1"}}}
	h := newHarness(t, api, WithClock(func() time.Time { return now }))
	require.NoError(t, h.tokens.SetToken(context.Background(), expired))

	require.Nil(t, h.svc.CheckSession(context.Background()))
	require.Zero(t, api.sessionCalls.Load())
	_, ok := h.tokens.Token(context.Background())
	require.False(t, ok)
}

func TestCheckSession_ConfiguredDefaultRole(t *testing.T) {
	api := &fakeAPI{session: domain.SessionResult{Success: true, User: &domain.Identity{ID: "u1"}}}
	h := newHarness(t, api, WithDefaultRole(domain.RoleUser))
	require.NoError(t, h.tokens.SetToken(context.Background(), "opaque"))

	identity := h.svc.CheckSession(context.Background())
	require.NotNil(t, identity)
	require.Equal(t, domain.RoleUser, identity.Role)

	api.session.User.Role = domain.RoleAdmin
	require.Equal(t, domain.RoleAdmin, h.svc.CheckSession(context.Background()).Role)
}

func TestCheckSession_ConcurrentCallsShareOneRequest(t *testing.T) {
	api := &fakeAPI{
		session:     domain.SessionResult{Success: true, User: &domain.Identity{ID: "u1"}},
		sessionGate: make(chan struct{}),
	}
	h := newHarness(t, api)
	require.NoError(t, h.tokens.SetToken(context.Background(), "opaque"))

	var wg sync.WaitGroup
	results := make([]*domain.Identity, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.svc.CheckSession(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return api.sessionCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(api.sessionGate)
	wg.Wait()

	require.EqualValues(t, 1, api.sessionCalls.Load())
	for _, identity := range results {
		require.NotNil(t, identity)
		require.Equal(t, "u1", identity.ID)
	}
}

func TestSignOut_IsBestEffort(t *testing.T) {
	api := &fakeAPI{
		logoutErr: errors.New("backend down"),
		session:   domain.SessionResult{Success: true, User: &domain.Identity{ID: "u1"}},
	}
	h := newHarness(t, api)
	require.NoError(t, h.tokens.SetToken(context.Background(), "opaque"))
	require.NotNil(t, h.svc.CheckSession(context.Background()))

	h.svc.SignOut(context.Background())

	require.Equal(t, domain.StatusUnauthenticated, h.store.State().Status)
	require.Nil(t, h.store.State().User)
	_, ok := h.tokens.Token(context.Background())
	require.False(t, ok)
}

func TestRegister_StartsSession(t *testing.T) {
	api := &fakeAPI{
		register: domain.LoginResult{Success: true, Token: "new-token"},
		session:  domain.SessionResult{Success: true, User: &domain.Identity{ID: "u2", Role: domain.RoleUser}},
	}
	h := newHarness(t, api)

	identity, err := h.svc.Register(context.Background(), domain.SignUpForm{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Password: "cobol60",
	})
	require.NoError(t, err)
	require.Equal(t, "u2", identity.ID)
	require.Equal(t, domain.StatusAuthenticated, h.store.State().Status)

	_, err = h.svc.SignUp(context.Background(), domain.SignUpForm{Email: "grace@example.com"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "firstName")
}

func TestLogin_WinsOverSessionCheckForOldToken(t *testing.T) {
	tokens := memory.NewTokenStore()
	require.NoError(t, tokens.SetToken(context.Background(), "old"))
	gate := make(chan struct{})
	api := &tokenAPI{
		fakeAPI: &fakeAPI{login: domain.LoginResult{Success: true, Token: "new"}},
		tokens:  tokens,
		sessions: map[string]domain.SessionResult{
			"old": {Success: false},
			"new": {Success: true, User: &domain.Identity{ID: "u1", Email: "ada@example.com"}},
		},
		gates: map[string]chan struct{}{"old": gate},
	}
	st := state.New[State](Reduce, InitialState())
	svc, err := NewService(api, tokens, st)
	require.NoError(t, err)

	stale := make(chan *domain.Identity, 1)
	go func() { stale <- svc.CheckSession(context.Background()) }()
	require.Eventually(t, func() bool { return api.sessionCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	identity, err := svc.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "u1", identity.ID)
	require.Equal(t, domain.StatusAuthenticated, st.State().Status)

	close(gate)
	require.Nil(t, <-stale)

	got := st.State()
	require.Equal(t, domain.StatusAuthenticated, got.Status)
	require.NotNil(t, got.User)
	require.Equal(t, "u1", got.User.ID)
	token, ok := tokens.Token(context.Background())
	require.True(t, ok)
	require.Equal(t, "new", token)
}

func TestReduce_IgnoresResolutionOfSupersededCheck(t *testing.T) {
	s := Reduce(InitialState(), state.Pending{Type: OpCheckSession, RequestID: 1})
	s = Reduce(s, state.Pending{Type: OpCheckSession, RequestID: 2})
	require.EqualValues(t, 2, s.LatestCheck())

	s = Reduce(s, SessionResolved{RequestID: 2, User: &domain.Identity{ID: "u1"}})
	s = Reduce(s, SessionResolved{RequestID: 1})
	require.Equal(t, domain.StatusAuthenticated, s.Status)
	require.Equal(t, "u1", s.User.ID)
}

func TestLogin_ClearsTokenWhenSessionFails(t *testing.T) {
	api := &fakeAPI{
		login:   domain.LoginResult{Success: true, Token: "tok-1"},
		session: domain.SessionResult{Success: false},
	}
	h := newHarness(t, api)

	identity, err := h.svc.Login(context.Background(), "ada@example.com", "secret1")
	require.Nil(t, identity)
	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Unable to establish a session.", authErr.Message)

	_, ok := h.tokens.Token(context.Background())
	require.False(t, ok)
	require.Equal(t, domain.StatusUnauthenticated, h.store.State().Status)
}

func TestForgotPassword_SendsTrimmedEmail(t *testing.T) {
	api := &fakeAPI{account: domain.AccountResult{Success: true, Message: "Check your inbox"}}
	h := newHarness(t, api)

	msg, err := h.svc.ForgotPassword(context.Background(), "  ada@example.com ")
	require.NoError(t, err)
	require.Equal(t, "Check your inbox", msg)
	require.Equal(t, "ada@example.com", api.lastEmail)

	_, err = h.svc.ForgotPassword(context.Background(), "nope")
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
}

func TestResetPassword_ReportsBackendRefusal(t *testing.T) {
	api := &fakeAPI{account: domain.AccountResult{Success: false, Message: "Reset link expired"}}
	h := newHarness(t, api)
	h.svc.CheckSession(context.Background())

	_, err := h.svc.ResetPassword(context.Background(), domain.PasswordReset{Token: "r1", Password: "newpass1"})
	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Reset link expired", authErr.Message)
	require.Equal(t, "r1", api.lastReset.Token)
	require.Equal(t, "Reset link expired", h.store.State().Error)
	require.Equal(t, domain.StatusUnauthenticated, h.store.State().Status)

	_, err = h.svc.ResetPassword(context.Background(), domain.PasswordReset{Token: "r1", Password: "123"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "password")
}

func TestVerifyEmail_KeepsSession(t *testing.T) {
	api := &fakeAPI{
		account: domain.AccountResult{Success: true},
		session: domain.SessionResult{Success: true, User: &domain.Identity{ID: "u1"}},
	}
	h := newHarness(t, api)
	require.NoError(t, h.tokens.SetToken(context.Background(), "opaque"))
	require.NotNil(t, h.svc.CheckSession(context.Background()))

	_, err := h.svc.VerifyEmail(context.Background(), " v-123 ")
	require.NoError(t, err)
	require.Equal(t, "v-123", api.lastVerify)
	require.Equal(t, domain.StatusAuthenticated, h.store.State().Status)

	_, err = h.svc.VerifyEmail(context.Background(), " ")
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
}
