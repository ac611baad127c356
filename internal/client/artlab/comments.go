package artlab

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dovuchcha/artlab-client/internal/models"
)

// CommentsByArtPiece возвращает комментарии арт-объекта в порядке бэкенда
// (старые первыми, ответы вложены в replies). Переупорядочивание —
// ответственность слоя service/comments.
func (c *Client) CommentsByArtPiece(ctx context.Context, artPieceID int64) ([]*models.Comment, error) {
	const op = "client/artlab/CommentsByArtPiece"

	var comments []*models.Comment
	endpoint := c.url("/api/art_pieces/%d/comments/", artPieceID)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &comments); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

// CreateCommentInput — создание корневого комментария или ответа.
// Правила:
//   - ArtPieceID обязателен (эндпоинт вложен в арт-объект);
//   - ParentID == 0 — корневой комментарий, иначе — ответ;
//   - OwnerID — идентификатор профиля автора (резолвится слоем выше).
type CreateCommentInput struct {
	ArtPieceID int64
	ParentID   int64
	OwnerID    int64
	Content    string
}

type createCommentRequest struct {
	Content  string `json:"content"`
	Owner    int64  `json:"owner"`
	ArtPiece int64  `json:"art_piece"`
	Parent   *int64 `json:"parent,omitempty"`
}

// CreateComment отправляет комментарий на бэкенд и возвращает созданную
// запись с авторитетными id и timestamp.
func (c *Client) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "client/artlab/CreateComment"

	req := createCommentRequest{
		Content:  in.Content,
		Owner:    in.OwnerID,
		ArtPiece: in.ArtPieceID,
	}
	if in.ParentID != 0 {
		req.Parent = &in.ParentID
	}

	var comment models.Comment
	endpoint := c.url("/api/art_pieces/%d/comments/", in.ArtPieceID)
	if err := c.do(ctx, http.MethodPost, endpoint, req, &comment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &comment, nil
}
