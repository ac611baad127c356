package session

// Тесты менеджера сессии (internal/session/session.go).
//
//  Проверяем:
//  - Initialize: восстановление из хранилища (authenticated + декодированные
//    клеймы + ровно один цикл обновления), потребление входящего токена из
//    адреса с вырезанием параметра, кривой токен -> anonymous без ошибки;
//  - провал обновления: завершение сессии в пределах одного цикла, очистку
//    обеих записей хранилища, отсутствие ретраев;
//  - идемпотентность Logout и невозможность воскресить сессию поздним
//    ответом обмена после Logout;
//  - LoginURL и инвариант "access непуст только при непустом refresh".
//
// Зависимости подменяются рукописными фейками (хранилище и обмен токенов),
// без сети.

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dovuchcha/artlab-client/internal/config"
	"github.com/dovuchcha/artlab-client/internal/session/store"
)

// fakeStore — хранилище учётных данных в памяти.
type fakeStore struct {
	mu      sync.Mutex
	creds   store.Credentials
	clears  int
	saveErr error
}

func (f *fakeStore) Load() (store.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds, nil
}

func (f *fakeStore) Save(c store.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.creds = c
	return nil
}

func (f *fakeStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = store.Credentials{}
	f.clears++
	return nil
}

func (f *fakeStore) snapshot() store.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

// fakeTokens — обмен токенов с управляемым результатом.
// gate (если задан) блокирует ответ до закрытия канала — для проверки
// гонки "поздний ответ после Logout".
type fakeTokens struct {
	mu     sync.Mutex
	access string
	err    error
	calls  int
	gate   chan struct{}
}

func (f *fakeTokens) RefreshAccessToken(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.access, nil
}

func (f *fakeTokens) set(access string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = access
	f.err = err
}

func (f *fakeTokens) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// makeRefreshToken собирает валидный JWT с клеймами username/email
// (подпись не важна: декодирование офлайн и без проверки).
func makeRefreshToken(t *testing.T, username, email string) string {
	t.Helper()

	claims := jwt.MapClaims{"username": username, "email": email}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return raw
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		LoginURL:           "https://accounts.example.org/login",
		TokenURL:           "https://accounts.example.org/api/token/refresh/",
		RenewalInterval:    time.Hour, // тики не срабатывают в тестах без нужды
		AnonymousProfileID: 1,
	}
}

func TestInitialize_RestoresStoredSession(t *testing.T) {
	fs := &fakeStore{creds: store.Credentials{RefreshToken: makeRefreshToken(t, "alice", "alice@example.com")}}
	ft := &fakeTokens{access: "access-1"}

	m := New(fs, ft, testAuthConfig())
	t.Cleanup(m.Close)

	require.True(t, m.Snapshot().IsLoading)

	m.Initialize(context.Background(), "")

	snap := m.Snapshot()
	require.False(t, snap.IsLoading)
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "alice", snap.Username)
	require.Equal(t, "alice@example.com", snap.Email)
	require.Equal(t, "access-1", snap.AccessToken)
	require.Equal(t, 1, ft.callCount())

	// Пара токенов сохранена одним переходом.
	require.Equal(t, "access-1", fs.snapshot().AccessToken)
	require.NotEmpty(t, fs.snapshot().RefreshToken)

	// Ровно один цикл обновления: повторный запуск не создаёт второго.
	m.mu.Lock()
	done := m.renewDone
	m.mu.Unlock()
	require.NotNil(t, done)

	m.startRenewal()

	m.mu.Lock()
	require.Equal(t, done, m.renewDone)
	m.mu.Unlock()
}

func TestInitialize_ConsumesInboundToken(t *testing.T) {
	fs := &fakeStore{}
	ft := &fakeTokens{access: "access-1"}

	m := New(fs, ft, testAuthConfig())
	t.Cleanup(m.Close)

	raw := makeRefreshToken(t, "bob", "bob@example.com")
	clean := m.Initialize(context.Background(), "https://gallery.example.org/?refresh_token="+raw+"&tab=comments")

	// Параметр вырезан, остальной адрес сохранён.
	require.NotContains(t, clean, "refresh_token")
	require.Contains(t, clean, "tab=comments")

	snap := m.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "bob", snap.Username)
	require.Equal(t, raw, fs.snapshot().RefreshToken)
	require.Equal(t, "access-1", snap.AccessToken)
}

func TestInitialize_MalformedStoredToken_Anonymous(t *testing.T) {
	fs := &fakeStore{creds: store.Credentials{RefreshToken: "not-a-jwt"}}
	ft := &fakeTokens{}

	m := New(fs, ft, testAuthConfig())
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")

	snap := m.Snapshot()
	require.False(t, snap.IsLoading)
	require.False(t, snap.IsAuthenticated)
	require.Empty(t, snap.Username)
	require.Empty(t, snap.AccessToken)
	require.Zero(t, ft.callCount())
}

func TestInitialize_NoCredentials_Anonymous(t *testing.T) {
	m := New(&fakeStore{}, &fakeTokens{}, testAuthConfig())
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")

	snap := m.Snapshot()
	require.Equal(t, StateAnonymous, snap.State)
	require.False(t, snap.IsAuthenticated)
}

func TestInitialize_ExchangeFailure_LogsOut(t *testing.T) {
	fs := &fakeStore{creds: store.Credentials{RefreshToken: makeRefreshToken(t, "alice", "a@example.com")}}
	ft := &fakeTokens{err: errors.New("rejected")}

	m := New(fs, ft, testAuthConfig())
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")

	snap := m.Snapshot()
	require.False(t, snap.IsAuthenticated)
	require.Empty(t, snap.RefreshToken)
	require.Empty(t, snap.AccessToken)
	require.Equal(t, store.Credentials{}, fs.snapshot())
	// Без ретраев: ровно одна попытка обмена.
	require.Equal(t, 1, ft.callCount())
}

func TestRenewalFailure_LogsOutWithinOneCycle(t *testing.T) {
	cfg := testAuthConfig()
	cfg.RenewalInterval = 20 * time.Millisecond

	fs := &fakeStore{creds: store.Credentials{RefreshToken: makeRefreshToken(t, "alice", "a@example.com")}}
	ft := &fakeTokens{access: "access-1"}

	m := New(fs, ft, cfg)
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")
	require.True(t, m.Snapshot().IsAuthenticated)

	ft.set("", errors.New("rejected"))

	require.Eventually(t, func() bool {
		snap := m.Snapshot()
		return !snap.IsAuthenticated && fs.snapshot() == store.Credentials{}
	}, time.Second, 5*time.Millisecond)
}

func TestLogout_Idempotent(t *testing.T) {
	fs := &fakeStore{creds: store.Credentials{RefreshToken: makeRefreshToken(t, "alice", "a@example.com")}}
	ft := &fakeTokens{access: "access-1"}

	m := New(fs, ft, testAuthConfig())
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")
	require.True(t, m.Snapshot().IsAuthenticated)

	m.Logout(context.Background())
	first := m.Snapshot()
	require.False(t, first.IsAuthenticated)
	require.Equal(t, store.Credentials{}, fs.snapshot())

	m.Logout(context.Background())
	require.Equal(t, first, m.Snapshot())
}

func TestLogout_LateRenewalCannotResurrect(t *testing.T) {
	raw := makeRefreshToken(t, "alice", "a@example.com")
	fs := &fakeStore{creds: store.Credentials{RefreshToken: raw}}
	gate := make(chan struct{})
	ft := &fakeTokens{access: "access-1"}

	m := New(fs, ft, testAuthConfig())
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")
	require.True(t, m.Snapshot().IsAuthenticated)

	// Обмен зависает в полёте, Logout происходит до прихода ответа.
	ft.mu.Lock()
	ft.gate = gate
	ft.access = "late-access"
	ft.mu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- m.RenewAccessCredential(context.Background()) }()

	m.Logout(context.Background())
	close(gate)

	require.NoError(t, <-errCh)

	snap := m.Snapshot()
	require.False(t, snap.IsAuthenticated)
	require.Empty(t, snap.AccessToken)
	require.Equal(t, store.Credentials{}, fs.snapshot())
}

func TestConsumeLoginToken_Invalid(t *testing.T) {
	m := New(&fakeStore{}, &fakeTokens{}, testAuthConfig())
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")

	err := m.ConsumeLoginToken(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
	require.False(t, m.Snapshot().IsAuthenticated)
}

func TestAccessRefreshInvariant(t *testing.T) {
	fs := &fakeStore{creds: store.Credentials{RefreshToken: makeRefreshToken(t, "alice", "a@example.com")}}
	ft := &fakeTokens{access: "access-1"}

	m := New(fs, ft, testAuthConfig())
	t.Cleanup(m.Close)

	m.Initialize(context.Background(), "")
	snap := m.Snapshot()
	require.NotEmpty(t, snap.RefreshToken)
	require.NotEmpty(t, snap.AccessToken)

	m.Logout(context.Background())
	snap = m.Snapshot()
	// Очистка refresh очищает access тем же переходом.
	require.Empty(t, snap.RefreshToken)
	require.Empty(t, snap.AccessToken)
}

func TestLoginURL(t *testing.T) {
	m := New(&fakeStore{}, &fakeTokens{}, testAuthConfig())
	t.Cleanup(m.Close)

	u := m.LoginURL("http://127.0.0.1:8765/?state=abc")
	require.Contains(t, u, "https://accounts.example.org/login?redirection=")
	require.Contains(t, u, "state%3Dabc")
}
