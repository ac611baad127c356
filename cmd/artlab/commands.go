package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dovuchcha/artlab-client/internal/models"
	"github.com/dovuchcha/artlab-client/internal/service/gallery"
	"github.com/dovuchcha/artlab-client/internal/transport/callback"
)

// runLogin запускает локальный callback-листенер, печатает адрес страницы
// входа и ждёт обратного редиректа с refresh-токеном.
func (a *app) runLogin(ctx context.Context) error {
	if a.session.Snapshot().IsAuthenticated {
		fmt.Println("Already signed in as", a.session.Snapshot().Username)
		return nil
	}

	state := uuid.NewString()
	srv := callback.New(a.cfg.Callback, state, a.log)

	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = srv.Run(srvCtx) }()

	returnTo := fmt.Sprintf("http://%s/?state=%s", a.cfg.Callback.Addr(), state)
	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println("  " + a.session.LoginURL(returnTo))

	select {
	case token := <-srv.Token():
		if err := a.session.ConsumeLoginToken(ctx, token); err != nil {
			return err
		}

		snap := a.session.Snapshot()
		fmt.Printf("Signed in as %s <%s>\n", snap.Username, snap.Email)

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) runWhoami() error {
	snap := a.session.Snapshot()
	if !snap.IsAuthenticated {
		fmt.Println("Anonymous visitor.")
		return nil
	}

	fmt.Printf("%s <%s>\n", snap.Username, snap.Email)

	return nil
}

// runArt печатает каталог, опционально отфильтрованный по запросу
// (название / имя художника / жанр).
func (a *app) runArt(ctx context.Context, args []string) error {
	pieces, err := a.gallery.ArtPieces(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		artistNames := map[int64]string{}
		if artists, err := a.gallery.Artists(ctx); err == nil {
			for _, ar := range artists {
				artistNames[ar.ID] = ar.Name
			}
		}

		genreNames, _ := a.gallery.GenreNames(ctx)
		pieces = gallery.Search(pieces, artistNames, genreNames, strings.Join(args, " "))
	}

	if len(pieces) == 0 {
		fmt.Println("No art pieces found.")
		return nil
	}

	for _, p := range pieces {
		fmt.Printf("%6d  %s (%d)\n", p.ID, p.Title, p.CreatedYear)
	}

	return nil
}

func (a *app) runShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <art_id>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad art_id %q", args[0])
	}

	detail, err := a.gallery.ArtPieceDetail(ctx, id)
	if err != nil {
		return err
	}

	p := detail.Piece
	fmt.Printf("%s (%d)\n", p.Title, p.CreatedYear)
	if detail.Artist != nil {
		fmt.Printf("by %s\n", detail.Artist.Name)
	}
	if p.Medium != "" {
		fmt.Printf("medium: %s\n", p.Medium)
	}
	if len(detail.GenreNames) > 0 {
		fmt.Printf("genres: %s\n", strings.Join(detail.GenreNames, ", "))
	}
	if p.Description != "" {
		fmt.Println(p.Description)
	}

	forest, err := a.comments.LoadThread(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "comments unavailable:", err)
		return nil
	}

	fmt.Printf("\nComments (%d):\n", len(forest))
	printForest(forest, 0)

	return nil
}

func (a *app) runArtists(ctx context.Context) error {
	artists, err := a.gallery.Artists(ctx)
	if err != nil {
		return err
	}

	for _, ar := range artists {
		years := ar.BirthDate
		if ar.DeathDate != "" {
			years += " – " + ar.DeathDate
		}
		fmt.Printf("%6d  %s  (%s)\n", ar.ID, ar.Name, years)
	}

	return nil
}

func (a *app) runComment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: comment <art_id> <text>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad art_id %q", args[0])
	}

	forest, err := a.comments.LoadThread(ctx, id)
	if err != nil {
		return err
	}

	forest, err = a.comments.SubmitTopLevel(ctx, forest, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Println("Comment posted.")
	printForest(forest, 0)

	return nil
}

func (a *app) runReply(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: reply <art_id> <parent_id> <text>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad art_id %q", args[0])
	}

	parentID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad parent_id %q", args[1])
	}

	// Ответы адресуются идентификаторами из загруженного дерева, поэтому
	// загрузка обязана завершиться до отправки.
	forest, err := a.comments.LoadThread(ctx, id)
	if err != nil {
		return err
	}

	forest, err = a.comments.SubmitReply(ctx, forest, id, parentID, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}

	fmt.Println("Reply posted.")
	printForest(forest, 0)

	return nil
}

func (a *app) runContributeArtist(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("contribute-artist", flag.ContinueOnError)
	name := fs.String("name", "", "artist name (required)")
	bio := fs.String("bio", "", "short biography")
	birth := fs.Int("birth", 0, "birth year (required)")
	death := fs.Int("death", 0, "death year (0 if living)")
	email := fs.String("email", "", "contributor email (ignored when signed in)")
	photo := fs.String("photo", "", "path to a portrait image")

	if err := fs.Parse(args); err != nil {
		return err
	}

	in := gallery.ContributeArtistInput{
		Name:      *name,
		Bio:       *bio,
		BirthYear: *birth,
		DeathYear: *death,
		Email:     *email,
	}

	if *photo != "" {
		f, err := os.Open(*photo)
		if err != nil {
			return fmt.Errorf("open photo: %w", err)
		}
		defer func() { _ = f.Close() }()
		in.Photo = f
		in.PhotoName = *photo
	}

	artist, err := a.gallery.ContributeArtist(ctx, in)
	if err != nil {
		return err
	}

	fmt.Printf("Artist %q submitted for review (id %d).\n", artist.Name, artist.ID)

	return nil
}

func (a *app) runContributeArt(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("contribute-art", flag.ContinueOnError)
	title := fs.String("title", "", "art piece title (required)")
	artistID := fs.Int64("artist", 0, "artist id (required)")
	year := fs.Int("year", 0, "year of creation")
	medium := fs.String("medium", "", "medium (oil on canvas, ...)")
	desc := fs.String("description", "", "description")
	email := fs.String("email", "", "contributor email (ignored when signed in)")
	image := fs.String("image", "", "path to an image file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	in := gallery.ContributeArtPieceInput{
		Title:       *title,
		ArtistID:    *artistID,
		CreatedYear: *year,
		Medium:      *medium,
		Description: *desc,
		Email:       *email,
	}

	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer func() { _ = f.Close() }()
		in.Image = f
		in.ImageName = *image
	}

	piece, err := a.gallery.ContributeArtPiece(ctx, in)
	if err != nil {
		return err
	}

	fmt.Printf("Art piece %q submitted for review (id %d).\n", piece.Title, piece.ID)

	return nil
}

// printForest печатает дерево комментариев с отступом по глубине.
func printForest(forest []*models.Comment, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, c := range forest {
		author := c.Username
		if author == "" {
			author = "Anonymous"
		}
		fmt.Printf("%s[%d] %s — %s\n", indent, c.ID, author, c.Content)
		printForest(c.Replies, depth+1)
	}
}
