// artlab — HTTP-клиент REST-бэкендов галереи (каталог, профили, комментарии)
// и эндпоинта обмена токенов.
//
// Основные аспекты:
//   - Клиент не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования из разных горутин.
//   - Access-токен не хранится в клиенте: на каждый запрос он запрашивается
//     у TokenSource (источник — менеджер сессии), чтобы после logout
//     заголовок Authorization исчезал немедленно.
//   - Ошибки возвращаются и далее маппятся вызывающими слоями
//     (см. комментарии к переменным ошибок ниже).
package artlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dovuchcha/artlab-client/internal/config"
	"github.com/dovuchcha/artlab-client/internal/pkg/log"
)

var (
	// ErrUnauthenticated — бэкенд отверг учётные данные (HTTP 401/403).
	// Для refresh-токена означает невосстановимую потерю сессии.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound — сущность отсутствует на бэкенде (HTTP 404),
	// а также пустой результат точечного поиска профиля.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument — бэкенд отверг параметры запроса (HTTP 400).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable — транзиентная ошибка: сеть, таймаут, HTTP 5xx.
	// Вызывающий слой показывает сообщение и откатывается к состоянию
	// до попытки.
	ErrUnavailable = errors.New("service unavailable")
)

// TokenSource отдаёт текущий access-токен ("" — анонимный запрос).
type TokenSource func() string

// Client — клиент REST-бэкендов галереи.
type Client struct {
	httpc     *http.Client
	baseURL   string
	tokenURL  string
	userAgent string
	token     TokenSource
	timeout   time.Duration
}

// New создаёт новый экземпляр Client.
// token == nil означает, что все запросы выполняются анонимно.
func New(cfg config.Config, token TokenSource) *Client {
	if token == nil {
		token = func() string { return "" }
	}

	return &Client{
		httpc:     &http.Client{},
		baseURL:   strings.TrimRight(cfg.API.BaseURL, "/"),
		tokenURL:  cfg.Auth.TokenURL,
		userAgent: "artlab-client",
		token:     token,
		timeout:   cfg.Timeouts.Service,
	}
}

// do выполняет JSON-запрос: кодирует in (если задан), декодирует ответ в out
// (если задан) и маппит HTTP-статусы в сентинельные ошибки пакета.
// На каждый запрос навешивается таймаут cfg.Timeouts.Service и X-Request-Id.
func (c *Client) do(ctx context.Context, method, rawURL string, in, out any) error {
	const op = "client/artlab/do"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// doMultipart выполняет multipart/form-data запрос (контрибуция записей
// с изображением): fields — текстовые поля, file — опциональное вложение.
func (c *Client) doMultipart(ctx context.Context, rawURL string, fields map[string]string, fileField, fileName string, file io.Reader, out any) error {
	const op = "client/artlab/doMultipart"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("%s: field %q: %w", op, k, err)
		}
	}

	if file != nil {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if _, err := io.Copy(fw, file); err != nil {
			return fmt.Errorf("%s: copy %q: %w", op, fileName, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(req, out)
}

// send навешивает общие заголовки, выполняет запрос и разбирает ответ.
func (c *Client) send(req *http.Request, out any) error {
	const op = "client/artlab/send"

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if access := c.token(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	lg := log.From(req.Context()).With(
		slog.String("op", op),
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()),
	)

	resp, err := c.httpc.Do(req)
	if err != nil {
		lg.Warn("request_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusToError(resp.StatusCode); err != nil {
		lg.Warn("request_rejected", slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%s: %s %s: %w", op, req.Method, req.URL.Path, err)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		lg.Warn("decode_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}

// statusToError маппит HTTP-статус в сентинельную ошибку пакета.
func statusToError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthenticated
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400 && status < 500:
		return ErrInvalidArgument
	default:
		return ErrUnavailable
	}
}

// url собирает абсолютный URL эндпоинта каталога.
func (c *Client) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}
