// models содержит доменные сущности клиента галереи.
// Эти типы используются слоями бизнес-логики и HTTP-клиента.
package models

import "time"

// Comment — узел дерева комментариев одного арт-объекта.
// Важно:
//   - ID назначается бэкендом и уникален в пределах всего дерева
//     (независимо от глубины);
//   - ParentID == 0 — корневой комментарий (бэкенд отдаёт parent: null);
//   - Replies — принадлежащие узлу ответы; порядок — порядок поступления
//     на клиент (бэкенд отдаёт старые первыми);
//   - удаление и редактирование не поддерживаются.
type Comment struct {
	ID         int64      `json:"id"`
	ArtPieceID int64      `json:"art_piece"`
	ParentID   int64      `json:"parent"`
	OwnerID    int64      `json:"owner"`
	Username   string     `json:"username"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Replies    []*Comment `json:"replies"`
}
