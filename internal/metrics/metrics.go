// metrics — прометеевские счётчики клиента.
// Отдаются наружу обработчиком promhttp на локальном debug/callback-листенере.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenRenewals — попытки обмена refresh-токена на access-токен,
	// result: ok | error.
	TokenRenewals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artlab_token_renewals_total",
		Help: "Access token renewal attempts by result.",
	}, []string{"result"})

	// CommentSubmissions — отправки комментариев,
	// kind: root | reply; result: ok | error.
	CommentSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artlab_comment_submissions_total",
		Help: "Comment submissions by kind and result.",
	}, []string{"kind", "result"})
)
