package redact

// Тесты redact: маскирование e-mail (длинная/короткая локальная часть,
// некорректный адрес) и плейсхолдер токена.

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "al***@example.com", Email("alice@example.com"))
	require.Equal(t, "***@example.com", Email("ab@example.com"))
	require.Equal(t, "***", Email("not-an-email"))
	require.Equal(t, "***", Email(""))
}

func TestToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
}
