// comments содержит бизнес-логику ветки комментариев одного арт-объекта:
// загрузку дерева, адресное добавление ответов и отправку новых
// комментариев через удалённый бэкенд.
//
// Основные аспекты:
//   - Дерево живёт в памяти страницы, которая его загрузила; между
//     страницами не разделяется и при уходе со страницы выбрасывается.
//   - Все мутации персистентные: операция возвращает НОВОЕ дерево, в
//     котором пересобран только путь от корня до изменённого узла, а все
//     остальные поддеревья разделяются с входным по указателям. Потребитель
//     вправе сравнивать ветки по указателю, чтобы не переобрабатывать
//     неизменённое.
//   - Чужие комментарии, появившиеся на бэкенде после загрузки, в дерево
//     не подмешиваются до следующей полной загрузки (live-синка нет).
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dovuchcha/artlab-client/internal/client/artlab"
	"github.com/dovuchcha/artlab-client/internal/config"
	"github.com/dovuchcha/artlab-client/internal/metrics"
	"github.com/dovuchcha/artlab-client/internal/models"
	"github.com/dovuchcha/artlab-client/internal/pkg/log"
	"github.com/dovuchcha/artlab-client/internal/session"
)

var (
	// ErrInvalidArgument — неверные входные параметры (пустой текст и т.п.).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRemote — бэкенд недоступен или отверг запрос; дерево не изменено,
	// вызывающая сторона сохраняет введённый текст и показывает ошибку.
	ErrRemote = errors.New("remote collaborator failure")
)

// API — операции удалённого бэкенда, нужные ветке комментариев.
type API interface {
	CommentsByArtPiece(ctx context.Context, artPieceID int64) ([]*models.Comment, error)
	CreateComment(ctx context.Context, in artlab.CreateCommentInput) (*models.Comment, error)
	ProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
	CreateProfile(ctx context.Context, username, email string) (*models.Profile, error)
}

// Identity — источник текущей личности визитёра (менеджер сессии).
type Identity interface {
	Snapshot() session.Snapshot
}

// Service описывает бизнес-логику ветки комментариев.
type Service struct {
	api     API
	session Identity
	cfg     config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(api API, sess Identity, cfg config.AuthConfig) *Service {
	return &Service{
		api:     api,
		session: sess,
		cfg:     cfg,
	}
}

// LoadThread загружает дерево комментариев арт-объекта.
// Бэкенд отдаёт корни старыми вперёд; наружу корни отдаются новыми вперёд,
// порядок ответов внутри узла сохраняется как получен.
func (s *Service) LoadThread(ctx context.Context, artPieceID int64) ([]*models.Comment, error) {
	const op = "service/comments/LoadThread"

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("art_piece_id", artPieceID))

	if artPieceID == 0 {
		lg.Warn("invalid argument: empty art_piece_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	items, err := s.api.CommentsByArtPiece(ctx, artPieceID)
	if err != nil {
		lg.Warn("comments_fetch_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	return LoadForest(items), nil
}

// LoadForest переводит ответ бэкенда в начальное дерево: переворачивает
// порядок корней (новые вперёд). Вход не модифицируется.
func LoadForest(items []*models.Comment) []*models.Comment {
	forest := make([]*models.Comment, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		forest = append(forest, items[i])
	}

	return forest
}

// AppendReply возвращает новое дерево, в котором node дописан последним
// ответом узла с id == parentID (родитель ищется обходом в глубину по всему
// дереву, на любой глубине). Пересобирается только путь от корня до
// родителя; остальные узлы разделяются с входным деревом.
//
// Если parentID в дереве нет (доброкачественная гонка: родитель не был
// загружен этим клиентом), операция — no-op: возвращается входное дерево
// без изменений, без ошибки и без прикрепления ответа к корню.
func AppendReply(forest []*models.Comment, parentID int64, node *models.Comment) []*models.Comment {
	out, ok := appendToBranch(forest, parentID, node)
	if !ok {
		return forest
	}

	return out
}

// appendToBranch — рекурсивный шаг AppendReply: копия уровня делается только
// если родитель найден в этом поддереве.
func appendToBranch(nodes []*models.Comment, parentID int64, node *models.Comment) ([]*models.Comment, bool) {
	for i, c := range nodes {
		if c.ID == parentID {
			clone := *c
			clone.Replies = make([]*models.Comment, 0, len(c.Replies)+1)
			clone.Replies = append(clone.Replies, c.Replies...)
			clone.Replies = append(clone.Replies, node)

			out := make([]*models.Comment, len(nodes))
			copy(out, nodes)
			out[i] = &clone

			return out, true
		}

		if len(c.Replies) == 0 {
			continue
		}

		if sub, ok := appendToBranch(c.Replies, parentID, node); ok {
			clone := *c
			clone.Replies = sub

			out := make([]*models.Comment, len(nodes))
			copy(out, nodes)
			out[i] = &clone

			return out, true
		}
	}

	return nil, false
}

// ResolveAuthorID определяет профиль-владельца нового комментария.
//
// Поведение:
//   - анонимный визитёр -> предсозданный анонимный профиль из конфигурации;
//   - аутентифицированный -> поиск профиля по username, при отсутствии —
//     создание;
//   - любой провал поиска/создания -> анонимный профиль: отправка
//     комментария не должна падать из-за резолва профиля.
func (s *Service) ResolveAuthorID(ctx context.Context) int64 {
	const op = "service/comments/ResolveAuthorID"

	snap := s.session.Snapshot()
	lg := log.From(ctx).With(slog.String("op", op), slog.String("username", snap.Username))

	if !snap.IsAuthenticated {
		return s.cfg.AnonymousProfileID
	}

	profile, err := s.api.ProfileByUsername(ctx, snap.Username)
	if err == nil {
		return profile.ID
	}

	if !errors.Is(err, artlab.ErrNotFound) {
		lg.Warn("profile_lookup_failed", slog.String("err", err.Error()))
		return s.cfg.AnonymousProfileID
	}

	created, err := s.api.CreateProfile(ctx, snap.Username, snap.Email)
	if err != nil {
		lg.Warn("profile_create_failed", slog.String("err", err.Error()))
		return s.cfg.AnonymousProfileID
	}

	return created.ID
}

// SubmitTopLevel отправляет корневой комментарий; при успехе возвращает
// дерево с новым узлом первым (новые вперёд, согласованно с LoadForest).
// При ошибке дерево возвращается без изменений, ошибка отдаётся вызывающей
// стороне (введённый текст не теряется).
func (s *Service) SubmitTopLevel(ctx context.Context, forest []*models.Comment, artPieceID int64, content string) ([]*models.Comment, error) {
	const op = "service/comments/SubmitTopLevel"

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("art_piece_id", artPieceID))

	content = strings.TrimSpace(content)
	if content == "" {
		lg.Warn("invalid argument: empty content")
		return forest, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	created, err := s.api.CreateComment(ctx, artlab.CreateCommentInput{
		ArtPieceID: artPieceID,
		OwnerID:    s.ResolveAuthorID(ctx),
		Content:    content,
	})
	if err != nil {
		metrics.CommentSubmissions.WithLabelValues("root", "error").Inc()
		lg.Warn("comment_submit_failed", slog.String("err", err.Error()))

		return forest, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	metrics.CommentSubmissions.WithLabelValues("root", "ok").Inc()

	out := make([]*models.Comment, 0, len(forest)+1)
	out = append(out, created)
	out = append(out, forest...)

	return out, nil
}

// SubmitReply отправляет ответ на комментарий parentID; при успехе
// добавляет авторитетный узел бэкенда через AppendReply.
// Контракт ошибок — как у SubmitTopLevel.
func (s *Service) SubmitReply(ctx context.Context, forest []*models.Comment, artPieceID, parentID int64, content string) ([]*models.Comment, error) {
	const op = "service/comments/SubmitReply"

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.Int64("art_piece_id", artPieceID),
		slog.Int64("parent_id", parentID),
	)

	content = strings.TrimSpace(content)
	if content == "" {
		lg.Warn("invalid argument: empty content")
		return forest, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if parentID == 0 {
		lg.Warn("invalid argument: empty parent_id")
		return forest, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	created, err := s.api.CreateComment(ctx, artlab.CreateCommentInput{
		ArtPieceID: artPieceID,
		ParentID:   parentID,
		OwnerID:    s.ResolveAuthorID(ctx),
		Content:    content,
	})
	if err != nil {
		metrics.CommentSubmissions.WithLabelValues("reply", "error").Inc()
		lg.Warn("reply_submit_failed", slog.String("err", err.Error()))

		return forest, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	metrics.CommentSubmissions.WithLabelValues("reply", "ok").Inc()

	out, ok := appendToBranch(forest, parentID, created)
	if !ok {
		// Родителя нет в локальном дереве — доброкачественная гонка,
		// наружу не ошибка; узел появится при следующей полной загрузке.
		lg.Warn("reply_parent_missing")
		return forest, nil
	}

	return out, nil
}
