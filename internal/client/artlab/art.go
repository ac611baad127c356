package artlab

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dovuchcha/artlab-client/internal/models"
)

// ArtPieces возвращает каталог арт-объектов.
func (c *Client) ArtPieces(ctx context.Context) ([]*models.ArtPiece, error) {
	const op = "client/artlab/ArtPieces"

	var pieces []*models.ArtPiece
	if err := c.do(ctx, http.MethodGet, c.url("/api/art_pieces/"), nil, &pieces); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pieces, nil
}

// ArtPieceByID возвращает арт-объект по идентификатору.
func (c *Client) ArtPieceByID(ctx context.Context, id int64) (*models.ArtPiece, error) {
	const op = "client/artlab/ArtPieceByID"

	var piece models.ArtPiece
	if err := c.do(ctx, http.MethodGet, c.url("/api/art_pieces/%d/", id), nil, &piece); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &piece, nil
}

// Artists возвращает список художников.
func (c *Client) Artists(ctx context.Context) ([]*models.Artist, error) {
	const op = "client/artlab/Artists"

	var artists []*models.Artist
	if err := c.do(ctx, http.MethodGet, c.url("/api/artists/"), nil, &artists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return artists, nil
}

// ArtistByID возвращает художника по идентификатору.
func (c *Client) ArtistByID(ctx context.Context, id int64) (*models.Artist, error) {
	const op = "client/artlab/ArtistByID"

	var artist models.Artist
	if err := c.do(ctx, http.MethodGet, c.url("/api/artists/%d/", id), nil, &artist); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &artist, nil
}

// Genres возвращает справочник жанров.
func (c *Client) Genres(ctx context.Context) ([]*models.Genre, error) {
	const op = "client/artlab/Genres"

	var genres []*models.Genre
	if err := c.do(ctx, http.MethodGet, c.url("/api/genres/"), nil, &genres); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return genres, nil
}

// Upload — опциональное файловое вложение контрибуции.
type Upload struct {
	Name   string
	Reader io.Reader
}

// CreateArtist создаёт контрибуцию-художника (multipart, поле profile_picture).
func (c *Client) CreateArtist(ctx context.Context, fields map[string]string, picture *Upload) (*models.Artist, error) {
	const op = "client/artlab/CreateArtist"

	var (
		artist   models.Artist
		reader   io.Reader
		fileName string
	)
	if picture != nil {
		reader, fileName = picture.Reader, picture.Name
	}

	if err := c.doMultipart(ctx, c.url("/api/artists/"), fields, "profile_picture", fileName, reader, &artist); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &artist, nil
}

// CreateArtPiece создаёт контрибуцию-арт-объект (multipart, поле image).
func (c *Client) CreateArtPiece(ctx context.Context, fields map[string]string, image *Upload) (*models.ArtPiece, error) {
	const op = "client/artlab/CreateArtPiece"

	var (
		piece    models.ArtPiece
		reader   io.Reader
		fileName string
	)
	if image != nil {
		reader, fileName = image.Reader, image.Name
	}

	if err := c.doMultipart(ctx, c.url("/api/art_pieces/"), fields, "image", fileName, reader, &piece); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &piece, nil
}
