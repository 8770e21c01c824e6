// Package display renders server responses for the terminal client.
package display

import (
	"fmt"
	"io"
	"strings"
)

// RenderBoard writes the server's ASCII board, White pieces in blue and
// Black pieces in red
func RenderBoard(w io.Writer, asciiBoard string, plain bool) {
	for _, line := range strings.Split(asciiBoard, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if plain {
			fmt.Fprintln(w, line)
			continue
		}

		// Coordinate rows carry file letters, not pieces
		coords := strings.HasPrefix(strings.TrimSpace(line), "a ")

		var sb strings.Builder
		for _, ch := range line {
			switch {
			case coords && ch >= 'a' && ch <= 'h', ch >= '1' && ch <= '8':
				sb.WriteString(Cyan + string(ch) + Reset)
			case ch >= 'A' && ch <= 'Z':
				sb.WriteString(Blue + string(ch) + Reset)
			case ch >= 'a' && ch <= 'z':
				sb.WriteString(Red + string(ch) + Reset)
			default:
				sb.WriteRune(ch)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// TurnName spells out a "w"/"b" turn
func TurnName(turn string) string {
	if turn == "w" {
		return "White"
	}
	return "Black"
}
