package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/game"
	"chessboard/internal/piece"
	"chessboard/internal/service"
	"chessboard/internal/storage"

	"github.com/chzyer/readline"
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdNew
	CmdResume
	CmdMove
	CmdUndo
	CmdMoves
	CmdSave
	CmdLoad
	CmdDelete
	CmdGames
	CmdScores
	CmdColor
	CmdVerbose
	CmdHistory
	CmdHelp
	CmdQuit
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

// LineReader supplies input lines; *readline.Instance satisfies it.
// Readline returns io.EOF when input is exhausted.
type LineReader interface {
	Readline() (string, error)
}

type promptSetter interface {
	SetPrompt(prompt string)
}

// scannerReader adapts a plain io.Reader for tests and piped input
type scannerReader struct {
	s *bufio.Scanner
}

func NewScannerReader(r io.Reader) LineReader {
	return &scannerReader{s: bufio.NewScanner(r)}
}

func (r *scannerReader) Readline() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg string
	darkBg  string
	white   string
	black   string
	reset   string
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeBrown: {
		lightBg: "\033[48;5;230m", // Beige
		darkBg:  "\033[48;5;94m",  // Brown
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGreen: {
		lightBg: "\033[48;5;157m",
		darkBg:  "\033[48;5;22m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGray: {
		lightBg: "\033[48;5;251m",
		darkBg:  "\033[48;5;240m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
}

// CLI is the terminal view: it reads commands and renders game state
type CLI struct {
	input   LineReader
	output  io.Writer
	prompt  string
	theme   ColorTheme
	verbose bool
}

func New(input LineReader, output io.Writer) *CLI {
	return &CLI{
		input:  input,
		output: output,
		theme:  ThemeOff,
	}
}

// GetCommand reads and parses one line; end of input and ^C read as quit
func (c *CLI) GetCommand() (*Command, error) {
	line, err := c.readLine()
	if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
		return &Command{Type: CmdQuit}, nil
	}
	if err != nil {
		return nil, err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return &Command{Type: CmdNone}, nil
	}
	return ParseCommand(line), nil
}

func (c *CLI) readLine() (string, error) {
	if ps, ok := c.input.(promptSetter); ok {
		ps.SetPrompt(c.prompt)
	} else {
		fmt.Fprint(c.output, c.prompt)
	}
	return c.input.Readline()
}

// ParseCommand maps a line to a command; unknown words are taken as moves
func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Type: CmdNone}
	}

	args := parts[1:]
	cmd := &Command{Args: args, Raw: input}

	switch strings.ToLower(parts[0]) {
	case "new":
		cmd.Type = CmdNew
	case "resume":
		cmd.Type = CmdResume
	case "undo":
		cmd.Type = CmdUndo
	case "moves":
		cmd.Type = CmdMoves
	case "save":
		cmd.Type = CmdSave
	case "load":
		cmd.Type = CmdLoad
	case "delete":
		cmd.Type = CmdDelete
	case "games":
		cmd.Type = CmdGames
	case "scores":
		cmd.Type = CmdScores
	case "color":
		cmd.Type = CmdColor
	case "verbose":
		cmd.Type = CmdVerbose
	case "history":
		cmd.Type = CmdHistory
	case "help", "?":
		cmd.Type = CmdHelp
	case "quit", "exit":
		cmd.Type = CmdQuit
	default:
		cmd.Type = CmdMove
		cmd.Args = []string{parts[0]}
	}
	return cmd
}

// SetPrompt sets the prompt shown before the next command
func (c *CLI) SetPrompt(prompt string) {
	c.prompt = prompt
}

func (c *CLI) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	c.theme = theme
	return nil
}

func (c *CLI) ToggleVerbose() bool {
	c.verbose = !c.verbose
	return c.verbose
}

func (c *CLI) ShowMessage(msg string) {
	fmt.Fprintln(c.output, msg)
}

func (c *CLI) ShowError(err error) {
	c.ShowMessage(fmt.Sprintf("Error: %v", err))
}

func (c *CLI) DisplayBoard(b *board.Board) {
	theme := themes[c.theme]
	var sb strings.Builder

	sb.WriteString("\n  a b c d e f g h\n")

	for r := 0; r < core.BoardSize; r++ {
		fmt.Fprintf(&sb, "%d ", core.BoardSize-r)
		for f := 0; f < core.BoardSize; f++ {
			p, occupied := b.Piece(core.Sq(r, f))

			if c.theme == ThemeOff {
				if occupied {
					fmt.Fprintf(&sb, "%c ", p.Symbol())
				} else {
					sb.WriteString(". ")
				}
				continue
			}

			bg := theme.darkBg
			if (r+f)%2 == 0 {
				bg = theme.lightBg
			}
			if !occupied {
				fmt.Fprintf(&sb, "%s  %s", bg, theme.reset)
				continue
			}
			fg := theme.black
			if p.Color == core.ColorWhite {
				fg = theme.white
			}
			fmt.Fprintf(&sb, "%s%s%c %s", bg, fg, p.Symbol(), theme.reset)
		}
		fmt.Fprintf(&sb, " %d\n", core.BoardSize-r)
	}
	sb.WriteString("  a b c d e f g h\n")

	c.ShowMessage(sb.String())
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  new [human]      - Start a new game against the computer (or another human)
  resume <pos>     - Start from a position, e.g. 'resume 4k3/8/8/8/8/8/8/R3K3 w'
  <move>           - Make a move (e.g., e2e4, g1f3)
  moves [square]   - List legal moves, optionally from one square
  undo [count]     - Undo moves; against the computer the default takes back a full turn
  save             - Save the current game
  load <id>        - Continue a saved game
  delete [id]      - Delete a saved game (default: the current one)
  games            - List saved games
  scores [winner]  - Show the scoreboard (winner: white|black|draw)
  color <theme>    - Set board color theme (off|brown|green|gray)
  verbose          - Toggle capture and check details
  history          - Show the moves of this game
  quit/exit        - Exit the program
  help/?           - Show this help message`

	c.ShowMessage(help)
}

func (c *CLI) ShowWelcome() {
	c.ShowMessage("Welcome to Chess!")
	c.ShowMessage("You play White against the computer. Type 'new' to start, 'help' for commands.")
	c.ShowMessage("No castling or en passant; pawns always promote to queens.")
	c.ShowMessage("")
}

func (c *CLI) ShowGameHistory(v *service.View) {
	for i := 0; i < len(v.History); i += 2 {
		white := describeEntry(v.History[i])
		if i+1 < len(v.History) {
			c.ShowMessage(fmt.Sprintf("%d. %s | %s", i/2+1, white, describeEntry(v.History[i+1])))
		} else {
			c.ShowMessage(fmt.Sprintf("%d. %s | ...", i/2+1, white))
		}
	}
	c.ShowMessage(fmt.Sprintf("Position: %s", v.Position))
	c.ShowMessage(fmt.Sprintf("Score: white %d, black %d", v.Score.White, v.Score.Black))
	c.ShowMessage(fmt.Sprintf("Game state: %s", v.State))
}

func describeEntry(e game.HistoryEntry) string {
	s := e.Move.String()
	if e.Captured != piece.None {
		s += "x" + e.Captured.String()
	}
	if e.Promoted {
		s += "=Q"
	}
	return s
}

// ShowMove reports a played move; captures and checks only in verbose mode
func (c *CLI) ShowMove(who string, result *game.MoveResult) {
	msg := fmt.Sprintf("%s (%s): %s", who, result.PlayerColor.Name(), result.Move)
	if c.verbose {
		if result.Captured != piece.None {
			msg += fmt.Sprintf(", captures %s (+%d)", result.Captured, result.Captured.Value())
		}
		if result.Promoted {
			msg += ", promotes to Queen"
		}
		if result.Check {
			msg += ", check"
		}
	}
	c.ShowMessage(msg)
}

func (c *CLI) ShowLegalMoves(from string, moves []core.Move) {
	if len(moves) == 0 {
		c.ShowMessage("No legal moves.")
		return
	}
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.String()
	}
	if from != "" {
		c.ShowMessage(fmt.Sprintf("Moves from %s: %s", from, strings.Join(names, " ")))
		return
	}
	c.ShowMessage(fmt.Sprintf("%d moves: %s", len(names), strings.Join(names, " ")))
}

func (c *CLI) ShowScores(results []core.ResultResponse) {
	if len(results) == 0 {
		c.ShowMessage("No finished games recorded.")
		return
	}
	c.ShowMessage(fmt.Sprintf("%-36s  %-6s  %5s  %5s  %5s  %s", "GAME", "WINNER", "WHITE", "BLACK", "MOVES", "ENDED"))
	for _, r := range results {
		c.ShowMessage(fmt.Sprintf("%-36s  %-6s  %5d  %5d  %5d  %s",
			r.GameID, r.Winner, r.WhiteScore, r.BlackScore, r.TotalMoves,
			r.EndedAt.Local().Format("2006-01-02 15:04")))
	}
}

func (c *CLI) ShowSavedGames(games []storage.GameRecord) {
	if len(games) == 0 {
		c.ShowMessage("No saved games.")
		return
	}
	for _, g := range games {
		c.ShowMessage(fmt.Sprintf("%s  %-10s  white %d, black %d  updated %s",
			g.GameID, core.State(g.State), g.WhiteScore, g.BlackScore,
			g.UpdatedAtUTC.Local().Format("2006-01-02 15:04")))
	}
}

func (c *CLI) ShowResult(r *core.ResultResponse) {
	c.ShowMessage(fmt.Sprintf("Result: %s (white %d, black %d) after %d moves",
		r.Winner, r.WhiteScore, r.BlackScore, r.TotalMoves))
}

func (c *CLI) ShowGameOver(state core.State) {
	c.ShowMessage(fmt.Sprintf("\nGame Over: %s", state))
	c.ShowMessage("Start a new game with 'new' or 'resume'.")
}
