// session содержит менеджер сессии — единственный источник истины о том,
// кто текущий визитёр и какой access-токен можно прикладывать к
// привилегированным запросам.
//
// Основные аспекты:
//   - Всё состояние сессии закрыто мьютексом; чтение — через иммутабельный
//     Snapshot, мутации — только через операции менеджера. Никакой другой
//     слой не пишет поля сессии напрямую.
//   - Машина состояний: loading -> anonymous | authenticated;
//     authenticated -> anonymous (logout или провал обновления);
//     anonymous -> authenticated (редирект со страницы входа).
//     loading входится ровно один раз, при старте.
//   - Фоновое обновление access-токена — одна отменяемая горутина;
//     Logout отменяет её синхронно, а поздний ответ обмена отбрасывается
//     по несовпадению refresh-токена, так что закрытую сессию нельзя
//     воскресить.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/dovuchcha/artlab-client/internal/config"
	"github.com/dovuchcha/artlab-client/internal/metrics"
	"github.com/dovuchcha/artlab-client/internal/pkg/log"
	"github.com/dovuchcha/artlab-client/internal/pkg/redact"
	"github.com/dovuchcha/artlab-client/internal/session/store"
)

// ErrInvalidToken — входящий refresh-токен не разобрался как JWT
// или не содержит обязательных клеймов.
var ErrInvalidToken = errors.New("invalid token")

// loginTokenParam — query-параметр, в котором страница входа передаёт
// одноразовый refresh-токен при редиректе обратно.
const loginTokenParam = "refresh_token"

// State — состояние сессии.
type State int8

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "loading"
	}
}

// Snapshot — согласованный срез состояния сессии.
// Либо анонимный, либо аутентифицированный: частичное состояние
// (username без IsAuthenticated и т.п.) наружу не отдаётся.
type Snapshot struct {
	State           State
	IsLoading       bool
	IsAuthenticated bool
	Username        string
	Email           string
	RefreshToken    string
	AccessToken     string
}

// CredentialStore — долговременное хранилище пары токенов.
type CredentialStore interface {
	Load() (store.Credentials, error)
	Save(store.Credentials) error
	Clear() error
}

// TokenClient — обмен refresh-токена на access-токен у бэкенда аккаунтов.
type TokenClient interface {
	RefreshAccessToken(ctx context.Context, refresh string) (string, error)
}

// Manager — менеджер сессии. Живёт всё время работы приложения.
type Manager struct {
	mu           sync.Mutex
	state        State
	username     string
	email        string
	refreshToken string
	accessToken  string

	store  CredentialStore
	tokens TokenClient
	cfg    config.AuthConfig

	renewCancel context.CancelFunc
	renewDone   chan struct{}
}

// New создаёт менеджер в состоянии loading.
func New(st CredentialStore, tokens TokenClient, cfg config.AuthConfig) *Manager {
	return &Manager{
		state:  StateLoading,
		store:  st,
		tokens: tokens,
		cfg:    cfg,
	}
}

// Initialize выполняется один раз при старте.
//
// Порядок:
//  1. если pageURL несёт одноразовый refresh-токен — потребить его
//     (клеймы декодируются офлайн, токен сохраняется в хранилище) и
//     вернуть адрес без параметра, чтобы повторный заход не
//     переигрывал вход;
//  2. иначе — восстановить сессию из хранилища и обменять refresh-токен
//     на access-токен;
//  3. если учётных данных нет — остаться анонимным.
//
// Кривой токен не считается ошибкой: сессия просто отсутствует.
// Состояние loading снимается последним шагом во всех ветках.
func (m *Manager) Initialize(ctx context.Context, pageURL string) string {
	const op = "session/Initialize"

	lg := log.From(ctx).With(slog.String("op", op))

	clean := pageURL
	var inbound string
	if pageURL != "" {
		inbound, clean = extractLoginToken(pageURL)
	}

	if inbound != "" {
		if err := m.ConsumeLoginToken(ctx, inbound); err != nil {
			lg.Warn("inbound_token_rejected",
				slog.String("token", redact.Token()),
				slog.String("err", err.Error()),
			)
		}
	} else {
		m.restore(ctx)
	}

	m.mu.Lock()
	if m.state == StateLoading {
		m.state = StateAnonymous
	}
	m.mu.Unlock()

	lg.Info("session_initialized", slog.String("state", m.Snapshot().State.String()))

	return clean
}

// ConsumeLoginToken принимает одноразовый refresh-токен (из query-параметра
// стартового адреса или от callback-листенера), сохраняет его и переводит
// сессию в authenticated.
//
// Ошибки:
//   - ErrInvalidToken — токен не разобрался; состояние не меняется;
//   - ошибка обмена на access-токен — сессия уже завершена (Logout).
func (m *Manager) ConsumeLoginToken(ctx context.Context, raw string) error {
	const op = "session/ConsumeLoginToken"

	lg := log.From(ctx).With(slog.String("op", op))

	username, email, err := decodeRefreshClaims(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	// Access-токен очищается в том же переходе: для нового refresh-токена
	// он ещё не выпущен.
	if err := m.store.Save(store.Credentials{RefreshToken: raw}); err != nil {
		lg.Warn("credential_store_write_failed", slog.String("err", err.Error()))
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.username = username
	m.email = email
	m.refreshToken = raw
	m.accessToken = ""
	m.mu.Unlock()

	lg.Info("login_token_consumed",
		slog.String("username", username),
		slog.String("email", redact.Email(email)),
	)

	if err := m.RenewAccessCredential(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.startRenewal()

	return nil
}

// restore поднимает сессию из долговременного хранилища (холодный старт).
func (m *Manager) restore(ctx context.Context) {
	const op = "session/restore"

	lg := log.From(ctx).With(slog.String("op", op))

	creds, err := m.store.Load()
	if err != nil {
		lg.Warn("credential_store_read_failed", slog.String("err", err.Error()))
		return
	}

	if creds.RefreshToken == "" {
		return
	}

	username, email, err := decodeRefreshClaims(creds.RefreshToken)
	if err != nil {
		// Кривой сохранённый токен — молча остаёмся анонимными.
		lg.Warn("malformed_stored_token", slog.String("token", redact.Token()))
		return
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.username = username
	m.email = email
	m.refreshToken = creds.RefreshToken
	m.accessToken = ""
	m.mu.Unlock()

	if err := m.RenewAccessCredential(ctx); err != nil {
		// Провал обмена уже завершил сессию.
		return
	}

	m.startRenewal()
}

// RenewAccessCredential обменивает текущий refresh-токен на новый
// access-токен и сохраняет его в памяти и хранилище.
//
// Провал обмена (сеть или отвергнутый токен) не ретраится: отвергнутый
// refresh-токен валидным не станет, поэтому сессия завершается (Logout).
// Поздний успешный ответ после Logout отбрасывается: перед записью
// access-токена refresh-токен сверяется с актуальным.
func (m *Manager) RenewAccessCredential(ctx context.Context) error {
	const op = "session/RenewAccessCredential"

	lg := log.From(ctx).With(slog.String("op", op))

	m.mu.Lock()
	refresh := m.refreshToken
	m.mu.Unlock()

	if refresh == "" {
		return nil
	}

	access, err := m.tokens.RefreshAccessToken(ctx, refresh)
	if err != nil {
		metrics.TokenRenewals.WithLabelValues("error").Inc()
		lg.Warn("access_renewal_failed", slog.String("err", err.Error()))
		m.Logout(ctx)

		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.TokenRenewals.WithLabelValues("ok").Inc()

	m.mu.Lock()
	if m.refreshToken != refresh {
		m.mu.Unlock()
		lg.Debug("stale_renewal_discarded")

		return nil
	}
	m.accessToken = access
	creds := store.Credentials{RefreshToken: refresh, AccessToken: access}
	m.mu.Unlock()

	if err := m.store.Save(creds); err != nil {
		lg.Warn("credential_store_write_failed", slog.String("err", err.Error()))
	}

	return nil
}

// startRenewal запускает фоновый цикл обновления access-токена.
// Повторный вызов при живом цикле — no-op (ровно один таймер на сессию).
func (m *Manager) startRenewal() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renewCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.renewCancel = cancel
	m.renewDone = done

	go m.renewLoop(ctx, m.cfg.RenewalInterval, done)
}

func (m *Manager) renewLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RenewAccessCredential(ctx); err != nil {
				// Сессия завершена, ретраев нет.
				return
			}
		}
	}
}

// LoginURL возвращает адрес внешней страницы входа с обратным адресом
// returnTo в параметре redirection. Локальное состояние не меняется:
// обратный путь обрабатывают Initialize/ConsumeLoginToken.
func (m *Manager) LoginURL(returnTo string) string {
	u, err := url.Parse(m.cfg.LoginURL)
	if err != nil {
		return m.cfg.LoginURL
	}

	q := u.Query()
	q.Set("redirection", returnTo)
	u.RawQuery = q.Encode()

	return u.String()
}

// Logout синхронно сбрасывает сессию в анонимное состояние: останавливает
// цикл обновления, очищает поля и стирает обе записи хранилища.
// Идемпотентен.
func (m *Manager) Logout(ctx context.Context) {
	const op = "session/Logout"

	lg := log.From(ctx).With(slog.String("op", op))

	m.mu.Lock()
	cancel := m.renewCancel
	m.renewCancel = nil
	m.state = StateAnonymous
	m.username = ""
	m.email = ""
	m.refreshToken = ""
	m.accessToken = ""
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if err := m.store.Clear(); err != nil {
		lg.Warn("credential_store_clear_failed", slog.String("err", err.Error()))
	}

	lg.Info("logged_out")
}

// Close останавливает фоновый цикл и дожидается его завершения.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.renewCancel
	done := m.renewDone
	m.renewCancel = nil
	m.renewDone = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Snapshot возвращает согласованный срез состояния сессии.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		State:           m.state,
		IsLoading:       m.state == StateLoading,
		IsAuthenticated: m.state == StateAuthenticated,
		Username:        m.username,
		Email:           m.email,
		RefreshToken:    m.refreshToken,
		AccessToken:     m.accessToken,
	}
}

// AccessToken — текущий access-токен ("" у анонимной сессии).
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.accessToken
}

// extractLoginToken вырезает одноразовый refresh-токен из адреса.
// Возвращает токен ("" — параметра нет) и адрес без параметра.
func extractLoginToken(pageURL string) (token, clean string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", pageURL
	}

	q := u.Query()
	token = q.Get(loginTokenParam)
	if token == "" {
		return "", pageURL
	}

	q.Del(loginTokenParam)
	u.RawQuery = q.Encode()

	return token, u.String()
}
