package cli

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/marcelocantos/boxlog/internal/repository"
	"github.com/marcelocantos/boxlog/internal/watch"
)

// RunWatch prints the records of src matching opts, then prints new ones
// as the file grows, until ctx is cancelled. A file that is missing or
// half written is reported and retried on the next change. Limit is
// ignored.
func RunWatch(ctx context.Context, w, errW io.Writer, src Source, opts QueryOptions) int {
	opts.Limit = 0
	p, err := opts.Output.printer(w)
	if err != nil {
		return fail(errW, "watch", err)
	}
	if _, err := opts.Filter.Build(); err != nil {
		return fail(errW, "watch", err)
	}

	printed := 0
	err = watch.Follow(ctx, src.Path, watch.DefaultDebounce, func() error {
		repo, err := src.open()
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		records, err := opts.run(repo)
		switch {
		case errors.Is(err, repository.ErrNoEntries):
			return nil
		case errors.Is(err, repository.ErrInvalidDecryptionKey):
			return err
		case err != nil:
			log.Printf("boxlog watch: %v", err)
			return nil
		}
		if len(records) < printed {
			// Truncated or replaced.
			printed = 0
		}
		if err := p.Records(records[printed:]); err != nil {
			return err
		}
		printed = len(records)
		return nil
	})
	if err != nil {
		return fail(errW, "watch", err)
	}
	return 0
}
