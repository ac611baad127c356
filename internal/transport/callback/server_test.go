package callback

// Тесты callback-листенера (handleRedirect, без поднятия реального порта):
//  - валидный редирект: токен уходит в канал, ответ 200 и не содержит токена;
//  - чужой state -> 400, токен не доставляется;
//  - редирект без токена -> 400;
//  - повторный редирект того же сеанса терпится (токен ровно один).

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dovuchcha/artlab-client/internal/config"
)

func testServer(t *testing.T, state string) *Server {
	t.Helper()

	return New(
		config.CallbackConfig{Host: "127.0.0.1", Port: "0"},
		state,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestHandleRedirect_DeliversToken(t *testing.T) {
	t.Parallel()

	s := testServer(t, "state-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?state=state-1&refresh_token=tok-1", nil)
	s.handleRedirect(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// Токен доставлен через канал и не светится в теле ответа.
	select {
	case got := <-s.Token():
		require.Equal(t, "tok-1", got)
	default:
		t.Fatal("token not delivered")
	}
	require.NotContains(t, rec.Body.String(), "tok-1")
}

func TestHandleRedirect_StateMismatch(t *testing.T) {
	t.Parallel()

	s := testServer(t, "state-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?state=forged&refresh_token=tok-1", nil)
	s.handleRedirect(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	select {
	case <-s.Token():
		t.Fatal("token must not be delivered on state mismatch")
	default:
	}
}

func TestHandleRedirect_MissingToken(t *testing.T) {
	t.Parallel()

	s := testServer(t, "state-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?state=state-1", nil)
	s.handleRedirect(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRedirect_RepeatTolerated(t *testing.T) {
	t.Parallel()

	s := testServer(t, "state-1")

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/?state=state-1&refresh_token=tok-1", nil)
		s.handleRedirect(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Ровно один токен в канале.
	require.Equal(t, "tok-1", <-s.Token())
	select {
	case <-s.Token():
		t.Fatal("second token must not be buffered")
	default:
	}
}
