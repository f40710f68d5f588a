package cli

import (
	"fmt"
	"io"

	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/repository"
)

// QueryOptions are the filters and ordering of boxlog query.
type QueryOptions struct {
	Filter repository.Spec
	Sort   string
	Limit  int // keep only the last Limit records; zero keeps all
	Output Output
}

func (o QueryOptions) run(repo *repository.Repository) ([]entry.Record, error) {
	q, err := o.Filter.Build()
	if err != nil {
		return nil, err
	}
	var sortOpt repository.SortOption
	if o.Sort != "" {
		if sortOpt, err = repository.ParseSortOption(o.Sort); err != nil {
			return nil, err
		}
	}
	records, err := repo.Entries(q)
	if err != nil {
		return nil, err
	}
	if o.Sort != "" {
		repository.Sort(records, sortOpt)
	}
	if o.Limit > 0 && len(records) > o.Limit {
		records = records[len(records)-o.Limit:]
	}
	return records, nil
}

// RunQuery prints the records of src that match opts.
func RunQuery(w, errW io.Writer, src Source, opts QueryOptions) int {
	p, err := opts.Output.printer(w)
	if err != nil {
		return fail(errW, "query", err)
	}
	repo, err := src.open()
	if err != nil {
		return fail(errW, "query", err)
	}
	records, err := opts.run(repo)
	if err != nil {
		return fail(errW, "query", err)
	}
	if err := p.Records(records); err != nil {
		return fail(errW, "query", err)
	}
	return 0
}

// RunGroup prints record counts per value of the field named by.
func RunGroup(w, errW io.Writer, src Source, by, order string, out Output) int {
	field, err := repository.ParseField(by)
	if err != nil {
		return fail(errW, "group", err)
	}
	if order == "" {
		order = repository.CountDesc.String()
	}
	o, err := repository.ParseGroupOrder(order)
	if err != nil {
		return fail(errW, "group", err)
	}
	p, err := out.printer(w)
	if err != nil {
		return fail(errW, "group", err)
	}
	repo, err := src.open()
	if err != nil {
		return fail(errW, "group", err)
	}
	groups, err := repo.GroupBy(field, o)
	if err != nil {
		return fail(errW, "group", err)
	}
	if err := p.Groups(field, groups); err != nil {
		return fail(errW, "group", err)
	}
	return 0
}

// RunSessions prints one line per session header in src.
func RunSessions(w, errW io.Writer, src Source, out Output) int {
	p, err := out.printer(w)
	if err != nil {
		return fail(errW, "sessions", err)
	}
	repo, err := src.open()
	if err != nil {
		return fail(errW, "sessions", err)
	}
	headers, err := repo.Headers()
	if err != nil {
		return fail(errW, "sessions", err)
	}
	records, err := repo.Entries(nil)
	if err != nil {
		return fail(errW, "sessions", err)
	}
	if err := p.Sessions(headers, records); err != nil {
		return fail(errW, "sessions", err)
	}
	return 0
}

// RunCheck parses the whole of src and reports whether it is well formed.
func RunCheck(w, errW io.Writer, src Source) int {
	repo, err := src.open()
	if err != nil {
		return fail(errW, "check", err)
	}
	headers, err := repo.Headers()
	if err != nil {
		return fail(errW, "check", err)
	}
	records, err := repo.Entries(nil)
	if err != nil {
		return fail(errW, "check", err)
	}
	fmt.Fprintf(w, "%s: ok, %d sessions, %d entries\n", src.Path, len(headers), len(records))
	return 0
}
