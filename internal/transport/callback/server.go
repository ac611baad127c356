// callback — локальный HTTP-листенер, принимающий редирект со внешней
// страницы входа.
//
// Страница аккаунтов возвращает визитёра на адрес из параметра redirection,
// дописав к нему одноразовый refresh-токен. Листенер сверяет одноразовый
// state, отдаёт токен ровно один раз через канал Token() и отвечает
// страницей без токена в адресе, чтобы перезагрузка вкладки не
// переигрывала вход.
//
// Дополнительно отдаёт /livez и /metrics (promhttp).
package callback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dovuchcha/artlab-client/internal/config"
)

const loginTokenParam = "refresh_token"

// Server — callback-листенер одного сеанса входа.
type Server struct {
	srv    *http.Server
	state  string
	tokens chan string
	log    *slog.Logger
}

// New создаёт листенер. state — одноразовое значение, заранее вшитое в
// обратный адрес; редирект с другим state отвергается.
func New(cfg config.CallbackConfig, state string, log *slog.Logger) *Server {
	s := &Server{
		state:  state,
		tokens: make(chan string, 1),
		log:    log,
	}

	r := chi.NewRouter()
	r.Get("/", s.handleRedirect)
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Run обслуживает листенер до отмены ctx, затем гасит его.
func (s *Server) Run(ctx context.Context) error {
	const op = "transport/callback/Run"

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("callback_listen_start", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shCtx)

		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Token — канал доставки refresh-токена (ёмкость 1, первый выигрывает).
func (s *Server) Token() <-chan string {
	return s.tokens
}

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	const op = "transport/callback/handleRedirect"

	q := r.URL.Query()

	if s.state != "" && q.Get("state") != s.state {
		s.log.Warn("state_mismatch", slog.String("op", op))
		http.Error(w, "state mismatch", http.StatusBadRequest)

		return
	}

	token := q.Get(loginTokenParam)
	if token == "" {
		http.Error(w, "missing "+loginTokenParam, http.StatusBadRequest)

		return
	}

	select {
	case s.tokens <- token:
	default:
		// Повторный редирект того же сеанса — токен уже доставлен.
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<html><body><p>Login complete. You can close this tab.</p></body></html>"))
}
