package index

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/senselabs/sense/pkg/provider"
)

// AutoLabeler labels a file with its base name minus the extension.
type AutoLabeler struct{}

func (AutoLabeler) Label(path string) (string, error) {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)), nil
}

// NoneLabeler labels nothing; every file becomes an unlabeled placeholder.
type NoneLabeler struct{}

func (NoneLabeler) Label(string) (string, error) {
	return "", nil
}

// PromptLabeler asks interactively for each file's label. An empty answer
// leaves the file unlabeled.
type PromptLabeler struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPromptLabeler creates a labeler reading answers from in.
func NewPromptLabeler(in io.Reader, out io.Writer) *PromptLabeler {
	return &PromptLabeler{in: bufio.NewScanner(in), out: out}
}

func (p *PromptLabeler) Label(path string) (string, error) {
	fmt.Fprintf(p.out, "Label for %s (empty to skip): ", path)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// NewLabeler returns the labeler for a configured mode. Unknown modes fall
// back to prompting.
func NewLabeler(mode string, in io.Reader, out io.Writer) provider.Labeler {
	switch mode {
	case "auto":
		return AutoLabeler{}
	case "none":
		return NoneLabeler{}
	default:
		return NewPromptLabeler(in, out)
	}
}
