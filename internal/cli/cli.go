// Package cli implements the boxlog subcommands. Each Run function writes
// results to w, reports problems to errW and returns an exit code.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/marcelocantos/boxlog/internal/render"
	"github.com/marcelocantos/boxlog/internal/repository"
)

// Source names a log file and the key that decrypts it.
type Source struct {
	Path string
	Key  string
}

func (s Source) open() (*repository.Repository, error) {
	repo, err := repository.Open(s.Path)
	if err != nil {
		return nil, err
	}
	if err := repo.SetDecryptionKey(s.Key); err != nil {
		return nil, err
	}
	return repo, nil
}

// Output selects how results are printed.
type Output struct {
	Format string // text or json
	// Color forces styling on or off. Nil styles only terminals.
	Color *bool
}

func (o Output) printer(w io.Writer) (*render.Printer, error) {
	format, err := render.ParseFormat(o.Format)
	if err != nil {
		return nil, err
	}
	opts := render.Options{Format: format, Color: render.IsTerminal(w)}
	if o.Color != nil {
		opts.Color = *o.Color
	}
	if format == render.Text {
		opts.Width = render.TerminalWidth(w)
	}
	return render.NewPrinter(w, opts), nil
}

// fail prints err for cmd and returns exit code 1.
func fail(errW io.Writer, cmd string, err error) int {
	fmt.Fprintf(errW, "boxlog %s: %v\n", cmd, err)
	if errors.Is(err, repository.ErrInvalidDecryptionKey) {
		fmt.Fprintln(errW, "hint: pass the key with --key or BOXLOG_KEY")
	}
	return 1
}
