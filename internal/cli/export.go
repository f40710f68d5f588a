package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/marcelocantos/boxlog/internal/extract"
	"github.com/marcelocantos/boxlog/internal/render"
)

// RunRender appends the records of src matching opts to the table file
// out, one session block per session.
func RunRender(w, errW io.Writer, src Source, out string, params []string, opts QueryOptions) int {
	if out == "" {
		return fail(errW, "render", errors.New("no table file given (--out)"))
	}
	repo, err := src.open()
	if err != nil {
		return fail(errW, "render", err)
	}
	records, err := opts.run(repo)
	if err != nil {
		return fail(errW, "render", err)
	}
	if err := render.Table(out, records, params); err != nil {
		return fail(errW, "render", err)
	}
	fmt.Fprintf(w, "wrote %d entries to %s\n", len(records), out)
	return 0
}

// RunExtract concatenates the files matching patterns, oldest first, into
// out, or to w when out is empty.
func RunExtract(w, errW io.Writer, patterns []string, out string) int {
	paths, err := extract.Find(patterns...)
	if err != nil {
		return fail(errW, "extract", err)
	}
	if len(paths) == 0 {
		return fail(errW, "extract", fmt.Errorf("no files match %v", patterns))
	}
	if out == "" {
		if err := extract.Combine(w, paths); err != nil {
			return fail(errW, "extract", err)
		}
		return 0
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fail(errW, "extract", err)
	}
	if err := extract.Combine(f, paths); err != nil {
		f.Close()
		return fail(errW, "extract", err)
	}
	if err := f.Close(); err != nil {
		return fail(errW, "extract", err)
	}
	fmt.Fprintf(errW, "combined %d files into %s\n", len(paths), out)
	return 0
}
