package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDatabaseLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")
	var out bytes.Buffer

	steps := [][]string{
		{"init", "-path", path},
		{"user", "add", "-path", path, "-username", "Root", "-email", "Root@Example.com", "-password", "hunter2hunter2"},
		{"user", "set-password", "-path", path, "-username", "root", "-password", "another9pass"},
		{"user", "list", "-path", path},
		{"results", "-path", path, "-winner", "white"},
		{"games", "-path", path},
	}
	for _, args := range steps {
		if err := run(args, &out); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	got := out.String()
	for _, want := range []string{
		"Database initialized",
		"User created: root (",
		"Password updated for user: root",
		"root@example.com",
		"Total users: 1",
		"No results found",
		"No games found",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	if err := run([]string{"user", "add", "-path", path, "-username", "root", "-password", "hunter2hunter2"}, &out); err == nil {
		t.Error("duplicate username accepted")
	}

	if err := run([]string{"delete", "-path", path}, &out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("database file still present: %v", err)
	}
}

func TestArgumentErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "args.db")

	tests := []struct {
		name string
		args []string
	}{
		{"no subcommand", nil},
		{"unknown subcommand", []string{"vacuum"}},
		{"missing path", []string{"init"}},
		{"missing user subcommand", []string{"user"}},
		{"short password", []string{"user", "add", "-path", path, "-username", "a", "-password", "short"}},
		{"no password", []string{"user", "add", "-path", path, "-username", "a"}},
		{"ambiguous delete", []string{"user", "delete", "-path", path}},
		{"result without id", []string{"delete-result", "-path", path}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(tt.args, &out); err == nil {
				t.Errorf("run(%v) succeeded", tt.args)
			}
		})
	}
}
