package artlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dovuchcha/artlab-client/internal/models"
)

// ProfileByUsername ищет профиль по точному username.
//
// Бэкенд отдаёт список (ноль или один элемент); пустой список
// маппится в ErrNotFound.
func (c *Client) ProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	const op = "client/artlab/ProfileByUsername"

	var profiles []models.Profile
	endpoint := c.url("/api/profiles/?username=%s", url.QueryEscape(username))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &profiles); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(profiles) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return &profiles[0], nil
}

type createProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateProfile создаёт профиль для аутентифицированного визитёра.
func (c *Client) CreateProfile(ctx context.Context, username, email string) (*models.Profile, error) {
	const op = "client/artlab/CreateProfile"

	var profile models.Profile
	in := createProfileRequest{Username: username, Email: email}
	if err := c.do(ctx, http.MethodPost, c.url("/api/profiles/"), in, &profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &profile, nil
}
