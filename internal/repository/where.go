package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
)

// whereParams are the names bound for a Where expression.
var whereParams = []string{
	"kind", "message", "level", "label", "source", "file", "function",
	"line", "session", "version", "date", "group", "id", "metadata",
}

// compileWhere turns expr into a predicate. The expression is wrapped in a
// lambda so it is parsed once and evaluated per record.
func compileWhere(expr string) (func(entry.Record) (bool, error), error) {
	if strings.ContainsAny(expr, "\r\n") {
		return nil, fmt.Errorf("where: expression must be a single line")
	}
	src := "lambda " + strings.Join(whereParams, ", ") + ": (" + expr + "\n)"
	thread := &starlark.Thread{Name: "where"}
	v, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "where", src, nil)
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("where: not an expression")
	}

	return func(r entry.Record) (bool, error) {
		out, err := starlark.Call(thread, fn, recordArgs(r), nil)
		if err != nil {
			return false, fmt.Errorf("where: %w", err)
		}
		return bool(out.Truth()), nil
	}, nil
}

func recordArgs(r entry.Record) starlark.Tuple {
	f := r.Base()
	var message, group, id string
	var level starlark.Value = starlark.None
	switch v := r.(type) {
	case *entry.Log:
		message = v.Message
		level = starlark.String(v.Level.String())
	case *entry.Signpost:
		message, group, id = v.Message, v.Group, v.ID
	}
	return starlark.Tuple{
		starlark.String(r.Kind().String()),
		starlark.String(message),
		level,
		starlark.String(f.Label),
		starlark.String(f.Source),
		starlark.String(f.File),
		starlark.String(f.Function),
		starlark.MakeInt(f.Line),
		starlark.MakeInt(f.SessionNumber),
		starlark.String(f.Version.String()),
		starlark.String(f.Date.Format(time.RFC3339Nano)),
		starlark.String(group),
		starlark.String(id),
		starlarkMap(f.Metadata),
	}
}

func starlarkMap(m metadata.Map) *starlark.Dict {
	d := starlark.NewDict(len(m))
	for _, k := range m.Keys() {
		d.SetKey(starlark.String(k), starlarkValue(m[k]))
	}
	return d
}

func starlarkValue(v metadata.Value) starlark.Value {
	switch v.Kind() {
	case metadata.KindString:
		s, _ := v.Text()
		return starlark.String(s)
	case metadata.KindScalar:
		s, _ := v.Text()
		switch s {
		case "true":
			return starlark.True
		case "false":
			return starlark.False
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return starlark.MakeInt64(n)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return starlark.Float(f)
		}
		return starlark.String(s)
	case metadata.KindList:
		items := v.Items()
		elems := make([]starlark.Value, len(items))
		for i, item := range items {
			elems[i] = starlarkValue(item)
		}
		return starlark.NewList(elems)
	case metadata.KindMap:
		return starlarkMap(v.Map())
	}
	return starlark.None
}
