package render

import (
	"strings"

	"github.com/marcelocantos/boxlog/internal/boxfile"
	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/session"
)

// Table appends records to the aligned table file at path, one session
// block per run of records with the same session number. Each row keeps
// the time of its record.
func Table(path string, records []entry.Record, params []string) error {
	for len(records) > 0 {
		n := 1
		for n < len(records) && records[n].Base().SessionNumber == records[0].Base().SessionNumber {
			n++
		}
		if err := tableSession(path, records[:n], params); err != nil {
			return err
		}
		records = records[n:]
	}
	return nil
}

func tableSession(path string, records []entry.Record, params []string) error {
	first := records[0].Base()
	clock := session.NewFixedClock(first.Date)
	w, err := boxfile.Open(path, boxfile.Options{
		Clock:   clock,
		Session: session.Static(first.SessionNumber),
		Params:  append([]string{"Version: " + first.Version.String()}, params...),
	})
	if err != nil {
		return err
	}
	for _, r := range records {
		clock.Set(r.Base().Date)
		if err := w.Log(r.Base().Label, rowText(r)); err != nil {
			w.Close()
			return err
		}
	}
	clock.Set(records[len(records)-1].Base().Date)
	w.Finish()
	return w.Close()
}

func rowText(r entry.Record) string {
	if l, ok := r.(*entry.Log); ok && l.Level >= entry.Warning {
		return strings.ToUpper(l.Level.String()) + ": " + l.Message
	}
	return r.Text()
}
