package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/marcelocantos/boxlog/internal/boxfile"
	"github.com/marcelocantos/boxlog/internal/config"
	"github.com/marcelocantos/boxlog/internal/crypt"
	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/logging"
	"github.com/marcelocantos/boxlog/internal/metadata"
	"github.com/marcelocantos/boxlog/internal/recordfile"
	"github.com/marcelocantos/boxlog/internal/session"
)

// EmitOptions describes one entry written by boxlog emit.
type EmitOptions struct {
	Label   string // defaults to app.label
	Level   string // defaults to info
	Meta    []string
	Message string
	// Signpost, when set, writes a begin/end pair in this group around
	// the message instead of a log.
	Signpost string
}

// Setup builds a Logger from cfg. It starts a new session in the counter
// file and opens every configured sink. Close the returned Fanout when
// done.
func Setup(cfg *config.Config, out, errOut io.Writer, now time.Time) (*logging.Logger, logging.Fanout, error) {
	version, err := cfg.AppVersion()
	if err != nil {
		return nil, nil, err
	}
	counter, err := session.Begin(cfg.Session.StatePath, now)
	if err != nil {
		return nil, nil, err
	}
	cipher, err := crypt.FromKey(cfg.Log.Key)
	if err != nil {
		return nil, nil, err
	}

	var sinks logging.Fanout
	rw, err := recordfile.Open(cfg.Log.Path, recordfile.Options{
		Cipher:  cipher,
		Session: counter,
		Version: version,
		Params:  cfg.App.Params,
	})
	if err != nil {
		return nil, nil, err
	}
	sinks = append(sinks, logging.NewFileSink(rw))

	if cfg.Table.Path != "" {
		tw, err := boxfile.Open(cfg.Table.Path, boxfile.Options{
			Session: counter,
			Params:  append([]string{"Version: " + version.String()}, cfg.App.Params...),
		})
		if err != nil {
			sinks.Close()
			return nil, nil, err
		}
		sinks = append(sinks, logging.NewTableSink(tw))
	}

	if cfg.Console.Enabled {
		color, _ := cfg.Console.ColorMode()
		minLevel, _ := cfg.Console.Level()
		sinks = append(sinks, logging.NewConsoleSink(out, errOut, logging.ConsoleOptions{
			Color:    color,
			MinLevel: minLevel,
		}))
	}

	logger := logging.New(sinks, logging.Options{
		Label:  cfg.App.Label,
		Source: cfg.App.Source,
	})
	return logger, sinks, nil
}

// ParseMeta parses key=value pairs. Values that read as numbers or
// booleans become scalars; everything else is a string.
func ParseMeta(pairs []string) (metadata.Map, error) {
	md := metadata.Map{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("metadata %q: want key=value", pair)
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			md[k] = metadata.Scalar(v)
		} else if v == "true" || v == "false" {
			md[k] = metadata.Scalar(v)
		} else {
			md[k] = metadata.String(v)
		}
	}
	return md, nil
}

// RunEmit writes one entry through the logging stack configured by cfg.
func RunEmit(w, errW io.Writer, cfg *config.Config, opts EmitOptions) int {
	level := entry.Info
	if opts.Level != "" {
		l, err := entry.ParseLevel(opts.Level)
		if err != nil {
			return fail(errW, "emit", err)
		}
		level = l
	}
	md, err := ParseMeta(opts.Meta)
	if err != nil {
		return fail(errW, "emit", err)
	}

	logger, sinks, err := Setup(cfg, w, errW, time.Now())
	if err != nil {
		return fail(errW, "emit", err)
	}
	if opts.Label != "" {
		logger = logger.WithLabel(opts.Label)
	}

	if opts.Signpost != "" {
		sp := logger.Signpost(opts.Signpost)
		err = sp.Begin(opts.Message, md)
		if err == nil {
			err = sp.End(opts.Message, nil)
		}
	} else {
		err = logger.Log(level, opts.Message, md)
	}
	if cerr := sinks.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fail(errW, "emit", err)
	}
	return 0
}
