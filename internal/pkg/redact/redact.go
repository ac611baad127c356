// redact — маскирование чувствительных значений в логах.
// Токены (refresh/access) никогда не пишутся в лог целиком, e-mail маскируется
// до первых двух символов локальной части.
package redact

import "strings"

// Email маскирует локальную часть адреса: "alice@example.com" -> "al***@example.com".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token — плейсхолдер вместо значения токена.
func Token() string { return "[REDACTED_TOKEN]" }
