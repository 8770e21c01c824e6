// Package main runs a terminal chess game against the computer.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"os"

	"chessboard/internal/cli"
	"chessboard/internal/opponent"
	"chessboard/internal/service"
	"chessboard/internal/storage"
	clitransport "chessboard/internal/transport/cli"

	"github.com/chzyer/readline"
)

func main() {
	var (
		storagePath = flag.String("storage-path", "", "Path to SQLite database file for saved games and scores (disabled if empty)")
		seed        = flag.Uint64("seed", 0, "Seed for the computer's move choice (0 picks a random seed)")
		theme       = flag.String("theme", string(cli.ThemeBrown), "Board color theme: off, brown, green, gray")
		history     = flag.String("history", ".chess_history", "Command history file (empty disables history)")
	)
	flag.Parse()

	var store *storage.Store
	if *storagePath != "" {
		var err error
		store, err = storage.NewStore(*storagePath, false)
		if err != nil {
			log.Fatalf("Failed to open storage: %v", err)
		}
		if err := store.InitDB(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	// Tokens are never issued in the terminal game, the secret only satisfies
	// the service
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}
	svc := service.New(store, secret)
	defer func() {
		if err := svc.Shutdown(); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	opp := opponent.New()
	if *seed != 0 {
		opp = opponent.NewSeeded(*seed)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     *history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	view := cli.New(rl, rl.Stdout())
	if err := view.SetTheme(cli.ColorTheme(*theme)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	handler := clitransport.New(svc, view, opp)

	view.ShowWelcome()
	if err := handler.Run(); err != nil {
		log.Printf("Input error: %v", err)
	}
}
