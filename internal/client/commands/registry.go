// Package commands implements the API client's REPL commands.
package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"chessboard/internal/client/display"
)

// ErrExit is returned by the exit command
var ErrExit = errors.New("exit")

var errNoGame = errors.New("no current game, use 'new' or 'join <gameId>'")

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Group       string
	Description string
	Usage       string
	Handler     func(*Session, []string) error
}

// Registry maps command names and short names to handlers
type Registry struct {
	session  *Session
	commands map[string]*Command
}

func NewRegistry(session *Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerAuthCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Group:       groupUtility,
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})
	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Group:       groupUtility,
		Description: "Exit the client",
		Usage:       "exit",
		Handler:     func(*Session, []string) error { return ErrExit },
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Execute runs one input line. It returns ErrExit when the client should
// stop; command failures are printed, not returned.
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd, ok := r.commands[strings.ToLower(parts[0])]
	if !ok {
		r.session.printf(display.Red, "Unknown command: %s", parts[0])
		fmt.Fprintln(r.session.Out, "Type 'help' for available commands")
		return nil
	}

	err := cmd.Handler(r.session, parts[1:])
	if errors.Is(err, ErrExit) {
		return err
	}
	if err != nil {
		r.session.printf(display.Red, "Error: %v", err)
	}
	return nil
}

const (
	groupGame    = "Game"
	groupAuth    = "Auth"
	groupUtility = "Utility"
)

func (r *Registry) helpHandler(s *Session, args []string) error {
	if len(args) > 0 {
		cmd, ok := r.commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		s.printf(display.Cyan, "%s - %s", cmd.Name, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(s.Out, "Short form: %s\n", cmd.ShortName)
		}
		fmt.Fprintf(s.Out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	byGroup := make(map[string][]*Command)
	for name, cmd := range r.commands {
		if name == cmd.Name {
			byGroup[cmd.Group] = append(byGroup[cmd.Group], cmd)
		}
	}

	for _, group := range []string{groupGame, groupAuth, groupUtility} {
		cmds := byGroup[group]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

		s.printf(display.Yellow, "%s Commands:", group)
		for _, cmd := range cmds {
			fmt.Fprintf(s.Out, "  [%s] %-10s %s\n", cmd.ShortName, cmd.Name, cmd.Description)
		}
	}
	fmt.Fprintln(s.Out, "\nType 'help <command>' for detailed usage")
	return nil
}

func (s *Session) printf(color, format string, args ...any) {
	fmt.Fprintln(s.Out, display.Colorize(s.Plain, color, fmt.Sprintf(format, args...)))
}
