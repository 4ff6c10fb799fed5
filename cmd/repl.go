package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// =============================================================================
// REPL Constants
// =============================================================================

const (
	escBold  = "\033[1m"
	escDim   = "\033[2m"
	escCyan  = "\033[36m"
	escReset = "\033[0m"
)

// =============================================================================
// Query REPL
// =============================================================================

// runREPL drives a line-based query loop over one open snapshot. The
// snapshot is loaded once, so consecutive queries skip the database
// round trip.
func runREPL(cmd *cobra.Command, sess *querySession) error {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	// Color and prompt only when attached to a terminal; piped input
	// gets plain output so the results stay scriptable.
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	if interactive {
		version := sess.engine.Snapshot().Version
		fmt.Fprintf(out, "%s%sraywalk query%s snapshot %s (%d entities, dim %d)\n",
			escBold, escCyan, escReset,
			version, sess.engine.Snapshot().Len(), sess.engine.Snapshot().Dim)
		fmt.Fprintf(out, "%scommands: nn, analogy, radius, clusters, text, help, quit%s\n",
			escDim, escReset)
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			printREPLHelp(out)
			continue
		}

		if err := sess.dispatch(cmd.Context(), out, fields); err != nil {
			if errors.Is(err, cmd.Context().Err()) && cmd.Context().Err() != nil {
				return err
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func printREPLHelp(out io.Writer) {
	fmt.Fprint(out, `nn <entity> [k]          nearest neighbors
analogy <a> <b> <c> [k]  rank by v(b) - v(a) + v(c)
radius <entity> [r]      entities within cosine distance r
clusters [k]             k-means partition
text <words...>          rank against encoded free text
quit                     leave the session
`)
}
