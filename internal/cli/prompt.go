package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ncp-tools/ncp/internal/admission"
)

// stdinPrompt builds the interactive overwrite prompt used under the "ask"
// policy. Anything other than y or yes declines.
func stdinPrompt(in io.Reader, out io.Writer) admission.PromptFunc {
	reader := bufio.NewReader(in)
	return func(path string) (bool, error) {
		fmt.Fprintf(out, "%s exists, overwrite? [y/N] ", path)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
