package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// refreshClaims — клеймы, зашитые в refresh-токен провайдером аккаунтов.
type refreshClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// decodeRefreshClaims извлекает username/email из refresh-токена БЕЗ проверки
// подписи и без сетевого вызова: клиент не владеет ключом провайдера, токен
// проверяется бэкендом при каждом обмене. Кривой токен -> ошибка, которую
// Initialize трактует как отсутствие сессии.
func decodeRefreshClaims(raw string) (username, email string, err error) {
	const op = "session/decodeRefreshClaims"

	var claims refreshClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if claims.Username == "" {
		return "", "", fmt.Errorf("%s: missing username claim", op)
	}

	return claims.Username, claims.Email, nil
}
