package models

// Profile — профиль автора комментариев на бэкенде галереи.
// Профиль с идентификатором из конфигурации (anonymous_profile_id)
// предсоздан на бэкенде и используется для неаутентифицированных визитёров.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
