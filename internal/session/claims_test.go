package session

// Тесты офлайн-декодирования клеймов refresh-токена:
//  - валидный токен -> username/email без сети;
//  - не-JWT, пустая строка, токен без username -> ошибка.

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestDecodeRefreshClaims_OK(t *testing.T) {
	t.Parallel()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "alice",
		"email":    "alice@example.com",
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	username, email, err := decodeRefreshClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
	require.Equal(t, "alice@example.com", email)
}

func TestDecodeRefreshClaims_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, _, err := decodeRefreshClaims(raw)
		require.Error(t, err, "token %q", raw)
	}
}

func TestDecodeRefreshClaims_MissingUsername(t *testing.T) {
	t.Parallel()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "alice@example.com",
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	_, _, err = decodeRefreshClaims(raw)
	require.Error(t, err)
}

func TestExtractLoginToken(t *testing.T) {
	t.Parallel()

	token, clean := extractLoginToken("https://g.example.org/?refresh_token=abc&x=1")
	require.Equal(t, "abc", token)
	require.Equal(t, "https://g.example.org/?x=1", clean)

	token, clean = extractLoginToken("https://g.example.org/?x=1")
	require.Empty(t, token)
	require.Equal(t, "https://g.example.org/?x=1", clean)
}
