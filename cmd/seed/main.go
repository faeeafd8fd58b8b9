// Package main provides a tool to seed DocShelf with demo accounts and documents.
//
// It reads the same configuration as the server (environment and .env only),
// registers demo users and uploads generated documents for each of them.
//
// Usage:
//
//	DATA_DIR=~/DocShelf go run ./cmd/seed
//	DATA_DIR=~/DocShelf go run ./cmd/seed --users 5 --docs 20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/samber/do/v2"

	"github.com/docshelf/docshelf-server/internal/config"
	"github.com/docshelf/docshelf-server/internal/di"
	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/service"
)

var (
	userCount = flag.Int("users", 3, "Number of demo users to create")
	docCount  = flag.Int("docs", 10, "Number of documents to upload per user")
	password  = flag.String("password", "docshelf", "Password for every demo user")
)

type composition struct {
	artist   string
	nickname string
	title    string
	fileType string
}

var catalog = []composition{
	{"Johann Sebastian Bach", "Bach", "Goldberg Variations", "score"},
	{"Johann Sebastian Bach", "Bach", "The Well-Tempered Clavier", "score"},
	{"Frederic Chopin", "Chopin", "Nocturne in E-flat major", "score"},
	{"Ludwig van Beethoven", "Beethoven", "Moonlight Sonata", "score"},
	{"Wolfgang Amadeus Mozart", "Mozart", "Requiem in D minor", "libretto"},
	{"Claude Debussy", "Debussy", "Clair de lune", "score"},
	{"Erik Satie", "Satie", "Gymnopedie No. 1", "score"},
	{"Antonio Vivaldi", "Il Prete Rosso", "The Four Seasons", "parts"},
	{"Giuseppe Verdi", "Verdi", "La traviata", "libretto"},
	{"Pyotr Ilyich Tchaikovsky", "Tchaikovsky", "Swan Lake", "parts"},
}

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	authService := do.MustInvoke[*service.AuthService](injector)
	documents := do.MustInvoke[*service.DocumentService](injector)

	fmt.Printf("Seeding %d users with %d documents each (driver=%s, storage=%s)\n",
		*userCount, *docCount, cfg.Database.Driver, cfg.Storage.Backend)

	ctx := context.Background()
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	for n := 1; n <= *userCount; n++ {
		userID, err := ensureUser(ctx, authService, n)
		if err != nil {
			log.Fatalf("Failed to create user %d: %v", n, err)
		}

		for d := 0; d < *docCount; d++ {
			if err := uploadDocument(ctx, documents, userID, rng); err != nil {
				log.Fatalf("Failed to upload document for %s: %v", userID, err)
			}
		}
		fmt.Printf("  seeded user%d@docshelf.test (%s)\n", n, userID)
	}

	fmt.Println("Done.")
}

// ensureUser registers demo user n, or logs in when it already exists.
func ensureUser(ctx context.Context, authService *service.AuthService, n int) (string, error) {
	email := fmt.Sprintf("user%d@docshelf.test", n)

	user, _, err := authService.Register(ctx, service.RegisterRequest{
		Username: fmt.Sprintf("Demo User %d", n),
		Email:    email,
		Password: *password,
	})
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, domainerrors.ErrConflict) {
		return "", err
	}

	token, err := authService.Login(ctx, email, *password)
	if err != nil {
		return "", fmt.Errorf("user exists with another password: %w", err)
	}
	return token.UserID, nil
}

func uploadDocument(ctx context.Context, documents *service.DocumentService, userID string, rng *rand.Rand) error {
	c := catalog[rng.IntN(len(catalog))]
	created := time.Now().AddDate(0, 0, -rng.IntN(365)).UTC()
	favorite := rng.IntN(4) == 0

	meta := domain.DocumentMetadata{
		FileType:        c.fileType,
		CreateTime:      created.Format(time.RFC3339),
		ArtistName:      c.artist,
		ArtistNickname:  c.nickname,
		CompositionName: c.title,
		Price:           fmt.Sprintf("%d.%02d", rng.IntN(50), rng.IntN(100)),
		IsFavorite:      &favorite,
	}
	if rng.IntN(2) == 0 {
		comment := "Edition from " + created.Format("January 2006")
		meta.Comment = &comment
	}

	body := fmt.Sprintf("%s\n%s\nSeeded %s\n", c.title, c.artist, time.Now().Format(time.RFC3339))
	fileName := strings.ToLower(strings.ReplaceAll(c.title, " ", "-")) + ".txt"

	_, err := documents.Create(ctx, userID, meta, service.Upload{
		FileName:    fileName,
		ContentType: "text/plain; charset=utf-8",
		Body:        strings.NewReader(body),
	})
	return err
}
