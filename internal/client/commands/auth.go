package commands

import (
	"fmt"

	"chessboard/internal/client/display"
)

func (r *Registry) registerAuthCommands() {
	for _, cmd := range []*Command{
		{Name: "register", ShortName: "r", Description: "Register a new user", Usage: "register <username> [password] [email]", Handler: registerHandler},
		{Name: "login", ShortName: "l", Description: "Login with username or email", Usage: "login <identifier> [password]", Handler: loginHandler},
		{Name: "logout", ShortName: "o", Description: "End the session", Usage: "logout", Handler: logoutHandler},
		{Name: "whoami", ShortName: "i", Description: "Show current user", Usage: "whoami", Handler: whoamiHandler},
	} {
		cmd.Group = groupAuth
		r.Register(cmd)
	}
}

// password takes args[i] or prompts for it
func (s *Session) password(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	if s.ReadPassword == nil {
		return "", fmt.Errorf("password required")
	}
	return s.ReadPassword(display.Colorize(s.Plain, display.Yellow, "Password: "))
}

func registerHandler(s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: register <username> [password] [email]")
	}
	password, err := s.password(args, 1)
	if err != nil {
		return err
	}
	email := ""
	if len(args) > 2 {
		email = args[2]
	}

	resp, err := s.Client.Register(args[0], password, email)
	if err != nil {
		return err
	}

	s.Client.SetToken(resp.Token)
	s.UserID, s.Username = resp.UserID, resp.Username
	s.printf(display.Green, "Registered and logged in as %s (%s)", resp.Username, resp.UserID)
	return nil
}

func loginHandler(s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: login <identifier> [password]")
	}
	password, err := s.password(args, 1)
	if err != nil {
		return err
	}

	resp, err := s.Client.Login(args[0], password)
	if err != nil {
		return err
	}

	s.Client.SetToken(resp.Token)
	s.UserID, s.Username = resp.UserID, resp.Username
	s.printf(display.Green, "Logged in as %s, session valid until %s",
		resp.Username, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func logoutHandler(s *Session, args []string) error {
	if s.Client.AuthToken == "" {
		return fmt.Errorf("not logged in")
	}
	err := s.Client.Logout()

	// Forget the token even when the server already dropped the session
	s.Client.SetToken("")
	s.UserID, s.Username = "", ""
	if err != nil {
		return err
	}
	s.printf(display.Green, "Logged out")
	return nil
}

func whoamiHandler(s *Session, args []string) error {
	if s.Client.AuthToken == "" {
		fmt.Fprintln(s.Out, "Not logged in")
		return nil
	}

	user, err := s.Client.GetCurrentUser()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "User ID:  %s\nUsername: %s\n", user.UserID, user.Username)
	if user.Email != "" {
		fmt.Fprintf(s.Out, "Email:    %s\n", user.Email)
	}
	if color := s.PlayerColor(); color != "" {
		fmt.Fprintf(s.Out, "Playing:  %s in %s\n", display.TurnName(color), s.CurrentGame)
	}
	return nil
}
