package intake

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// prompter prints each question on its own line and reads one line back.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) answer(_ step, prompt string) (string, error) {
	if _, err := fmt.Fprintln(p.out, prompt); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%w: no answer to %q: %w", ErrInvalidInput, prompt, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewInteractive asks every question on out and reads the answers from in.
func NewInteractive(fs afero.Fs, in io.Reader, out io.Writer, workers int) *Collector {
	return newCollector(fs, &prompter{in: bufio.NewReader(in), out: out}, workers)
}
