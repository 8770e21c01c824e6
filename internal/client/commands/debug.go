package commands

import (
	"fmt"
	"strings"
	"time"

	"chessboard/internal/client/display"
)

func (r *Registry) registerDebugCommands() {
	for _, cmd := range []*Command{
		{Name: "health", ShortName: ".", Description: "Check server health", Usage: "health", Handler: healthHandler},
		{Name: "url", ShortName: "/", Description: "Show or set API base URL", Usage: "url [apiUrl]", Handler: urlHandler},
		{Name: "trace", ShortName: "~", Description: "Toggle request tracing", Usage: "trace", Handler: traceHandler},
	} {
		cmd.Group = groupUtility
		r.Register(cmd)
	}
}

func healthHandler(s *Session, args []string) error {
	resp, err := s.Client.Health()
	if err != nil {
		return err
	}

	s.printf(display.Cyan, "Server Health:")
	fmt.Fprintf(s.Out, "  Status:   %s\n", resp.Status)
	fmt.Fprintf(s.Out, "  Time:     %s\n", time.Unix(resp.Time, 0).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(s.Out, "  Storage:  %s\n", resp.Storage)
	fmt.Fprintf(s.Out, "  Computer: %d active game(s)\n", resp.ComputerGames)
	return nil
}

func urlHandler(s *Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Out, "Current API URL: %s\n", s.Client.BaseURL)
		return nil
	}

	u := args[0]
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	s.Client.SetBaseURL(u)
	s.printf(display.Cyan, "API URL set to: %s", s.Client.BaseURL)
	return nil
}

func traceHandler(s *Session, args []string) error {
	if s.Client.Trace != nil {
		s.Client.Trace = nil
		fmt.Fprintln(s.Out, "Tracing off")
		return nil
	}
	s.Client.Trace = s.Out
	fmt.Fprintln(s.Out, "Tracing on")
	return nil
}
