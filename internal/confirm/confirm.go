// Package confirm asks a yes/no question on a terminal.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Ask prints question and reads one line. Only "y" or "yes" (any case)
// confirm; a read failure or EOF counts as no.
func Ask(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/n): ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
