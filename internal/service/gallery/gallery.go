// gallery содержит бизнес-логику каталога: просмотр и поиск арт-объектов
// и художников, справочник жанров и контрибуцию новых записей.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dovuchcha/artlab-client/internal/client/artlab"
	"github.com/dovuchcha/artlab-client/internal/models"
	"github.com/dovuchcha/artlab-client/internal/pkg/log"
	"github.com/dovuchcha/artlab-client/internal/session"
)

var (
	// ErrNotFound — арт-объект/художник отсутствует на бэкенде.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — неверные входные параметры.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRemote — бэкенд недоступен или отверг запрос.
	ErrRemote = errors.New("remote collaborator failure")
)

// API — операции удалённого бэкенда, нужные каталогу.
type API interface {
	ArtPieces(ctx context.Context) ([]*models.ArtPiece, error)
	ArtPieceByID(ctx context.Context, id int64) (*models.ArtPiece, error)
	Artists(ctx context.Context) ([]*models.Artist, error)
	ArtistByID(ctx context.Context, id int64) (*models.Artist, error)
	Genres(ctx context.Context) ([]*models.Genre, error)
	CreateArtist(ctx context.Context, fields map[string]string, picture *artlab.Upload) (*models.Artist, error)
	CreateArtPiece(ctx context.Context, fields map[string]string, image *artlab.Upload) (*models.ArtPiece, error)
}

// Identity — источник текущей личности визитёра (менеджер сессии).
type Identity interface {
	Snapshot() session.Snapshot
}

// Service описывает бизнес-логику каталога.
type Service struct {
	api     API
	session Identity
}

// New создаёт новый экземпляр Service.
func New(api API, sess Identity) *Service {
	return &Service{api: api, session: sess}
}

// ArtPieceDetail — арт-объект с разрешёнными связями для страницы деталей.
type ArtPieceDetail struct {
	Piece      *models.ArtPiece
	Artist     *models.Artist
	GenreNames []string
}

// ArtPieces возвращает каталог арт-объектов.
func (s *Service) ArtPieces(ctx context.Context) ([]*models.ArtPiece, error) {
	const op = "service/gallery/ArtPieces"

	pieces, err := s.api.ArtPieces(ctx)
	if err != nil {
		log.From(ctx).Warn("art_pieces_fetch_failed", slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	return pieces, nil
}

// ArtPieceDetail собирает страницу деталей: сам объект, его художника и
// имена жанров. Провал загрузки справочника жанров не фатален — имена
// просто остаются пустыми.
func (s *Service) ArtPieceDetail(ctx context.Context, id int64) (*ArtPieceDetail, error) {
	const op = "service/gallery/ArtPieceDetail"

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("art_piece_id", id))

	if id == 0 {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	piece, err := s.api.ArtPieceByID(ctx, id)
	if err != nil {
		if errors.Is(err, artlab.ErrNotFound) {
			lg.Warn("art piece not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Warn("art_piece_fetch_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	detail := &ArtPieceDetail{Piece: piece}

	if piece.ArtistID != 0 {
		artist, err := s.api.ArtistByID(ctx, piece.ArtistID)
		if err != nil {
			lg.Warn("artist_fetch_failed", slog.String("err", err.Error()))
		} else {
			detail.Artist = artist
		}
	}

	names, err := s.GenreNames(ctx)
	if err == nil {
		for _, gid := range piece.GenreIDs {
			if name, ok := names[gid]; ok {
				detail.GenreNames = append(detail.GenreNames, name)
			}
		}
	}

	return detail, nil
}

// Artists возвращает список художников.
func (s *Service) Artists(ctx context.Context) ([]*models.Artist, error) {
	const op = "service/gallery/Artists"

	artists, err := s.api.Artists(ctx)
	if err != nil {
		log.From(ctx).Warn("artists_fetch_failed", slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	return artists, nil
}

// ArtistByID возвращает художника по идентификатору.
func (s *Service) ArtistByID(ctx context.Context, id int64) (*models.Artist, error) {
	const op = "service/gallery/ArtistByID"

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("artist_id", id))

	if id == 0 {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	artist, err := s.api.ArtistByID(ctx, id)
	if err != nil {
		if errors.Is(err, artlab.ErrNotFound) {
			lg.Warn("artist not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Warn("artist_fetch_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	return artist, nil
}

// GenreNames возвращает справочник жанров id -> имя.
func (s *Service) GenreNames(ctx context.Context) (map[int64]string, error) {
	const op = "service/gallery/GenreNames"

	genres, err := s.api.Genres(ctx)
	if err != nil {
		log.From(ctx).Warn("genres_fetch_failed", slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	names := make(map[int64]string, len(genres))
	for _, g := range genres {
		names[g.ID] = g.Name
	}

	return names, nil
}

// Search фильтрует каталог по подстроке (регистронезависимо) в названии,
// имени художника или именах жанров. Пустой запрос возвращает вход как есть.
func Search(pieces []*models.ArtPiece, artistNames map[int64]string, genreNames map[int64]string, query string) []*models.ArtPiece {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return pieces
	}

	var out []*models.ArtPiece
	for _, p := range pieces {
		if strings.Contains(strings.ToLower(p.Title), query) {
			out = append(out, p)
			continue
		}

		if name, ok := artistNames[p.ArtistID]; ok && strings.Contains(strings.ToLower(name), query) {
			out = append(out, p)
			continue
		}

		for _, gid := range p.GenreIDs {
			if name, ok := genreNames[gid]; ok && strings.Contains(strings.ToLower(name), query) {
				out = append(out, p)
				break
			}
		}
	}

	return out
}
