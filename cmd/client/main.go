// Command client is a small terminal consumer of the library core: it
// signs in through the session source, waits for the session store to
// settle, and browses the folder/file tree through the hierarchy store.
// It wires the stores together the same way an interactive frontend
// would.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portal/internal/auth"
	"portal/internal/config"
	"portal/internal/hierarchy"
	"portal/internal/repository/postgres"
	"portal/internal/session"
)

func main() {
	login := flag.String("login", "", "login email, or the literal \"admin\"")
	password := flag.String("password", "", "password for -login")
	folderName := flag.String("folder", "", "folder to open after listing")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	profileRepo := postgres.NewProfileRepository(repoConfig)

	client := auth.NewSessionClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	source := auth.NewSessionSource(client, cfg.AdminEmail, logger)

	sessions := session.NewStore(source, profileRepo, session.Config{
		EscapeHatchAfter: cfg.BootstrapEscapeHatch,
		ForceReadyAfter:  cfg.BootstrapForceReady,
		OnEscapeHatch: func() {
			fmt.Fprintln(os.Stderr, "still connecting...")
		},
	}, logger)
	defer sessions.Close()

	settled := make(chan struct{}, 1)
	unsubscribe := sessions.Subscribe(func(snap session.Snapshot) {
		if !snap.Loading() {
			select {
			case settled <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	sessions.Initialize(ctx)

	if *login != "" {
		if _, err := source.SignIn(ctx, *login, *password); err != nil {
			log.Fatalf("Sign-in failed: %v", err)
		}
		defer sessions.SignOut(ctx)
	}

	// The sign-in lands in the store via the change subscription; wait
	// for a settled snapshot that reflects it.
	if !waitForSnapshot(sessions, settled, func(snap session.Snapshot) bool {
		return !snap.Loading() && (*login == "" || snap.SignedIn())
	}) {
		log.Fatal("Session never settled")
	}

	snap := sessions.Snapshot()
	if !snap.SignedIn() {
		log.Fatal("Not signed in; pass -login and -password")
	}
	fmt.Printf("Signed in as %s (role %s)\n", snap.User.Email, snap.Role)

	changed := make(chan struct{}, 1)
	tree := hierarchy.NewStore(folderRepo, fileRepo, sessions, func(r hierarchy.ReorderReceipt) {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "reorder persistence failed: %v\n", r.Err)
		}
	}, logger)
	defer tree.Close()
	unsubTree := tree.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubTree()

	if err := tree.RefreshFolders(ctx); err != nil {
		log.Fatalf("Failed to list folders: %v", err)
	}
	folders := tree.Folders()
	fmt.Printf("%d folders:\n", len(folders))
	for _, f := range folders {
		fmt.Printf("  %2d  %s\n", f.Position, f.Name)
	}

	if *folderName == "" {
		return
	}

	folderID := ""
	for _, f := range folders {
		if strings.EqualFold(f.Name, *folderName) {
			folderID = f.ID
			break
		}
	}
	if folderID == "" {
		log.Fatalf("No folder named %q", *folderName)
	}

	if err := tree.SelectFolder(ctx, folderID); err != nil {
		log.Fatalf("Failed to open folder: %v", err)
	}

	// SelectFolder clears the list and notifies synchronously, then the
	// fetched list lands with a second notification. Drain the first.
	select {
	case <-changed:
	default:
	}
	select {
	case <-changed:
	case <-time.After(10 * time.Second):
		log.Fatal("Timed out waiting for the file list")
	}

	files := tree.Files()
	fmt.Printf("%d files in %s:\n", len(files), *folderName)
	for _, f := range files {
		line := f.Name
		if f.Description != "" {
			line += "  (" + f.Description + ")"
		}
		fmt.Printf("  %2d  %s\n", f.Position, line)
	}
}

// waitForSnapshot polls the store until the predicate holds, waking on
// settled-state notifications.
func waitForSnapshot(sessions *session.Store, settled <-chan struct{}, want func(session.Snapshot) bool) bool {
	deadline := time.After(15 * time.Second)
	for {
		if want(sessions.Snapshot()) {
			return true
		}
		select {
		case <-settled:
		case <-deadline:
			return false
		}
	}
}
