package gallery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dovuchcha/artlab-client/internal/client/artlab"
	"github.com/dovuchcha/artlab-client/internal/models"
	"github.com/dovuchcha/artlab-client/internal/pkg/log"
)

// Входные структуры контрибуции.

// ContributeArtistInput — новая запись о художнике.
// BirthYear обязателен; DeathYear == 0 — художник жив. Email визитёра
// берётся из формы только у анонимов: у аутентифицированных принудительно
// подставляется e-mail сессии.
type ContributeArtistInput struct {
	Name      string
	Bio       string
	BirthYear int
	DeathYear int
	Email     string
	Photo     io.Reader
	PhotoName string
}

// ContributeArtPieceInput — новый арт-объект.
type ContributeArtPieceInput struct {
	Title       string
	ArtistID    int64
	CreatedYear int
	Medium      string
	Description string
	Email       string
	Image       io.Reader
	ImageName   string
}

// ContributeArtist создаёт контрибуцию-художника.
// Запись помечается is_contributed=true и уходит на модерацию
// неверифицированной.
func (s *Service) ContributeArtist(ctx context.Context, in ContributeArtistInput) (*models.Artist, error) {
	const op = "service/gallery/ContributeArtist"

	lg := log.From(ctx).With(slog.String("op", op))

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		lg.Warn("invalid argument: empty name")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.BirthYear == 0 {
		lg.Warn("invalid argument: empty birth year")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	fields := map[string]string{
		"is_contributed":    "true",
		"name":              in.Name,
		"bio":               in.Bio,
		"birth_date":        fmt.Sprintf("%04d-01-01", in.BirthYear),
		"contributor_email": s.contributorEmail(in.Email),
	}
	if in.DeathYear != 0 {
		fields["death_date"] = fmt.Sprintf("%04d-01-01", in.DeathYear)
	}

	var picture *artlab.Upload
	if in.Photo != nil {
		picture = &artlab.Upload{Name: in.PhotoName, Reader: in.Photo}
	}

	artist, err := s.api.CreateArtist(ctx, fields, picture)
	if err != nil {
		lg.Warn("artist_contribute_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	return artist, nil
}

// ContributeArtPiece создаёт контрибуцию-арт-объект.
func (s *Service) ContributeArtPiece(ctx context.Context, in ContributeArtPieceInput) (*models.ArtPiece, error) {
	const op = "service/gallery/ContributeArtPiece"

	lg := log.From(ctx).With(slog.String("op", op))

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		lg.Warn("invalid argument: empty title")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.ArtistID == 0 {
		lg.Warn("invalid argument: empty artist_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	fields := map[string]string{
		"is_contributed":    "true",
		"is_verified":       "false",
		"title":             in.Title,
		"artist":            strconv.FormatInt(in.ArtistID, 10),
		"created_year":      strconv.Itoa(in.CreatedYear),
		"medium":            in.Medium,
		"description":       in.Description,
		"contributor_email": s.contributorEmail(in.Email),
	}

	var image *artlab.Upload
	if in.Image != nil {
		image = &artlab.Upload{Name: in.ImageName, Reader: in.Image}
	}

	piece, err := s.api.CreateArtPiece(ctx, fields, image)
	if err != nil {
		lg.Warn("art_piece_contribute_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrRemote)
	}

	return piece, nil
}

// contributorEmail: у аутентифицированного визитёра e-mail формы
// игнорируется в пользу e-mail сессии.
func (s *Service) contributorEmail(formEmail string) string {
	if snap := s.session.Snapshot(); snap.IsAuthenticated {
		return snap.Email
	}

	return strings.TrimSpace(formEmail)
}
