package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/networkrad/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "networkrad.sid"

func newTestManager(t *testing.T) (*Manager, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	m := NewManager(backend, "test-secret", CookieOptions{
		Name:   testCookie,
		MaxAge: 24 * time.Hour,
	})
	return m, backend
}

func testUser() domain.SessionUser {
	return domain.SessionUser{
		ID:       "user-1",
		Email:    "ada@example.com",
		Name:     "Ada",
		Username: "ada",
		Provider: domain.ProviderPassword,
	}
}

// sessionCookie returns the cookie the response set, failing if it is absent
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	t.Fatalf("response did not set %s", testCookie)
	return nil
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestManager_SetAndReadUser(t *testing.T) {
	m, backend := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetUser(rec, requestWith(nil), testUser()))

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)
	assert.False(t, cookie.Secure)
	assert.Equal(t, 1, backend.Len())

	user, ok := m.User(requestWith(cookie))
	require.True(t, ok)
	assert.Equal(t, testUser(), *user)
}

func TestManager_AnonymousRequestsCreateNoState(t *testing.T) {
	m, backend := newTestManager(t)

	user, ok := m.User(requestWith(nil))
	assert.False(t, ok)
	assert.Nil(t, user)
	assert.Equal(t, 0, backend.Len())
}

func TestManager_SetUserRegeneratesID(t *testing.T) {
	m, backend := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetUser(rec, requestWith(nil), testUser()))
	first := sessionCookie(t, rec)

	rec = httptest.NewRecorder()
	second := testUser()
	second.Name = "Ada Lovelace"
	require.NoError(t, m.SetUser(rec, requestWith(first), second))
	next := sessionCookie(t, rec)

	assert.NotEqual(t, first.Value, next.Value)
	assert.Equal(t, 1, backend.Len(), "previous session must be discarded")

	_, ok := m.User(requestWith(first))
	assert.False(t, ok, "old session ID must no longer authenticate")

	user, ok := m.User(requestWith(next))
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", user.Name)
}

func TestManager_Destroy(t *testing.T) {
	m, backend := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetUser(rec, requestWith(nil), testUser()))
	cookie := sessionCookie(t, rec)

	rec = httptest.NewRecorder()
	require.NoError(t, m.Destroy(rec, requestWith(cookie)))

	expired := sessionCookie(t, rec)
	assert.Empty(t, expired.Value)
	assert.True(t, expired.MaxAge < 0)
	assert.Equal(t, 0, backend.Len())

	_, ok := m.User(requestWith(cookie))
	assert.False(t, ok)
}

func TestManager_DestroyWithoutSession(t *testing.T) {
	m, _ := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Destroy(rec, requestWith(nil)))
	assert.True(t, sessionCookie(t, rec).MaxAge < 0)
}

func TestManager_RejectsTamperedCookie(t *testing.T) {
	m, _ := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetUser(rec, requestWith(nil), testUser()))
	cookie := sessionCookie(t, rec)
	cookie.Value = cookie.Value[:len(cookie.Value)-4] + "AAAA"

	_, ok := m.User(requestWith(cookie))
	assert.False(t, ok)
}

func TestManager_RejectsOtherSecret(t *testing.T) {
	backend := NewMemoryBackend()
	opts := CookieOptions{Name: testCookie, MaxAge: time.Hour}
	issuer := NewManager(backend, "secret-one", opts)
	verifier := NewManager(backend, "secret-two", opts)

	rec := httptest.NewRecorder()
	require.NoError(t, issuer.SetUser(rec, requestWith(nil), testUser()))

	_, ok := verifier.User(requestWith(sessionCookie(t, rec)))
	assert.False(t, ok)
}

func TestManager_ExpiredBackendEntry(t *testing.T) {
	m, backend := newTestManager(t)
	now := time.Now()
	backend.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetUser(rec, requestWith(nil), testUser()))
	cookie := sessionCookie(t, rec)

	now = now.Add(25 * time.Hour)
	_, ok := m.User(requestWith(cookie))
	assert.False(t, ok)
}

func TestManager_SecureCookie(t *testing.T) {
	m := NewManager(NewMemoryBackend(), "s", CookieOptions{Name: testCookie, MaxAge: time.Hour, Secure: true})

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetUser(rec, requestWith(nil), testUser()))
	assert.True(t, sessionCookie(t, rec).Secure)
}

func TestManager_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	backend, err := NewRedisBackend(context.Background(), "redis://"+mr.Addr(), "sess:")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	m := NewManager(backend, "test-secret", CookieOptions{Name: testCookie, MaxAge: time.Hour})

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetUser(rec, requestWith(nil), testUser()))
	cookie := sessionCookie(t, rec)
	assert.Len(t, mr.Keys(), 1)

	user, ok := m.User(requestWith(cookie))
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user.Email)

	rec = httptest.NewRecorder()
	require.NoError(t, m.Destroy(rec, requestWith(cookie)))
	assert.Empty(t, mr.Keys())
}
