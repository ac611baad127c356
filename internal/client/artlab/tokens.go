package artlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dovuchcha/artlab-client/internal/pkg/log"
	"github.com/dovuchcha/artlab-client/internal/pkg/redact"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// RefreshAccessToken обменивает refresh-токен на новый access-токен.
//
// Поведение/ошибки:
//   - ErrUnauthenticated — бэкенд отверг refresh-токен; вызывающая сторона
//     (менеджер сессии) трактует это как невосстановимую потерю сессии;
//   - ErrUnavailable — сеть/5xx; менеджер сессии не различает эти случаи
//     и так же завершает сессию (ретраев нет).
func (c *Client) RefreshAccessToken(ctx context.Context, refresh string) (string, error) {
	const op = "client/artlab/RefreshAccessToken"

	lg := log.From(ctx).With(slog.String("op", op))

	var resp refreshResponse
	if err := c.do(ctx, http.MethodPost, c.tokenURL, refreshRequest{Refresh: refresh}, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if resp.Access == "" {
		lg.Warn("empty_access_token", slog.String("token", redact.Token()))
		return "", fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	return resp.Access, nil
}
