// Package main implements an interactive client for the chess server API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"chessboard/internal/client/api"
	"chessboard/internal/client/commands"
	"chessboard/internal/client/display"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

func main() {
	var (
		apiURL = flag.String("api", "http://localhost:8080", "API server base URL")
		plain  = flag.Bool("plain", false, "Disable colored output")
		trace  = flag.Bool("trace", false, "Print every request and response")
	)
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     ".chess_client_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	out := rl.Stdout()
	client := api.New(*apiURL)
	if *trace {
		client.Trace = out
	}

	s := &commands.Session{
		Client: client,
		Out:    out,
		Plain:  *plain,
		ReadPassword: func(prompt string) (string, error) {
			fmt.Fprint(out, prompt)
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(out)
			return string(pw), err
		},
	}
	registry := commands.NewRegistry(s)

	fmt.Fprintf(out, "Chess API client (%s)\nType 'help' for commands\n\n", client.BaseURL)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// ^C clears the line
			continue
		}

		if errors.Is(registry.Execute(strings.TrimSpace(line)), commands.ErrExit) {
			return
		}
	}
}

// buildPrompt shows the user, the current game and whose turn it is
func buildPrompt(s *commands.Session) string {
	var parts []string
	if s.Username != "" {
		parts = append(parts, s.Username)
	}
	if g := s.Game; g != nil {
		id := g.GameID
		if len(id) > 8 {
			id = id[:8]
		}
		info := id + " " + display.TurnName(g.Turn)
		if color := s.PlayerColor(); color != "" {
			info += " as " + display.TurnName(color)
		}
		parts = append(parts, info)
	}

	text := "chess"
	if len(parts) > 0 {
		text += " [" + strings.Join(parts, " | ") + "]"
	}
	if s.Plain {
		return text + " > "
	}
	return display.Prompt(text)
}
