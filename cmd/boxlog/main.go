package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/marcelocantos/boxlog/internal/cli"
	"github.com/marcelocantos/boxlog/internal/config"
	"github.com/marcelocantos/boxlog/internal/mcpserver"
	"github.com/marcelocantos/boxlog/internal/repository"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// app carries state shared by every subcommand.
type app struct {
	v    *viper.Viper
	cfg  *config.Config
	code int
}

func run() int {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("boxlog")
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "boxlog",
		Short:         "Write, query and render boxlog record files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString("config")
			if path == "" {
				path = config.ConfigPath()
			}
			cfg, err := config.LoadFrom(path)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ~/.config/boxlog/config.yaml, env BOXLOG_CONFIG)")
	pf.String("key", "", "decryption key (env BOXLOG_KEY)")
	a.bind(pf, "config", "key")

	root.AddCommand(
		a.queryCmd(),
		a.groupCmd(),
		a.sessionsCmd(),
		a.checkCmd(),
		a.renderCmd(),
		a.extractCmd(),
		a.watchCmd(),
		a.emitCmd(),
		a.mcpCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the boxlog version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "boxlog %s\n", version)
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "boxlog: %v\n", err)
		return 1
	}
	return a.code
}

func (a *app) bind(fs *pflag.FlagSet, names ...string) {
	for _, n := range names {
		if err := a.v.BindPFlag(n, fs.Lookup(n)); err != nil {
			panic(err)
		}
	}
}

// source resolves the file argument, falling back to the configured log.
func (a *app) source(args []string) cli.Source {
	src := cli.Source{Path: a.cfg.Log.Path, Key: a.v.GetString("key")}
	if len(args) > 0 {
		src.Path = args[0]
	}
	if src.Key == "" {
		src.Key = a.cfg.Log.Key
	}
	return src
}

func colorFlag(s string) (*bool, error) {
	c := config.ConsoleConfig{Color: s}
	return c.ColorMode()
}

type outputFlags struct {
	format string
	color  string
}

func (o *outputFlags) add(fs *pflag.FlagSet) {
	fs.StringVarP(&o.format, "format", "o", "text", "output format: text or json")
	fs.StringVar(&o.color, "color", "auto", "colour: auto, always or never")
}

func (o *outputFlags) output() (cli.Output, error) {
	color, err := colorFlag(o.color)
	if err != nil {
		return cli.Output{}, err
	}
	return cli.Output{Format: o.format, Color: color}, nil
}

type queryFlags struct {
	outputFlags
	spec  repository.Spec
	sort  string
	limit int
}

func (q *queryFlags) add(fs *pflag.FlagSet) {
	q.outputFlags.add(fs)
	fs.StringVarP(&q.spec.Levels, "level", "l", "", "comma-separated levels; excludes signposts")
	fs.StringVar(&q.spec.Sessions, "sessions", "", "session range, e.g. 3 or 2..5")
	fs.StringVar(&q.spec.Versions, "versions", "", "version range, e.g. 1.0..1.2")
	fs.StringVar(&q.spec.Since, "since", "", "earliest timestamp (RFC 3339 or YYYY-MM-DD)")
	fs.StringVar(&q.spec.Until, "until", "", "latest timestamp (RFC 3339 or YYYY-MM-DD)")
	fs.StringVar(&q.spec.Text, "text", "", "case-sensitive substring")
	fs.StringVar(&q.spec.Where, "where", "", "Starlark expression, e.g. 'level == \"error\" and session > 2'")
	fs.StringVar(&q.sort, "sort", "", "date-asc, date-desc, alpha-asc or alpha-desc")
	fs.IntVar(&q.limit, "limit", 0, "keep only the last N records")
}

func (q *queryFlags) options() (cli.QueryOptions, error) {
	out, err := q.output()
	if err != nil {
		return cli.QueryOptions{}, err
	}
	return cli.QueryOptions{Filter: q.spec, Sort: q.sort, Limit: q.limit, Output: out}, nil
}

func (a *app) queryCmd() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "query [file]",
		Short: "Print records matching filters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := q.options()
			if err != nil {
				return err
			}
			a.code = cli.RunQuery(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.source(args), opts)
			return nil
		},
	}
	q.add(cmd.Flags())
	return cmd
}

func (a *app) groupCmd() *cobra.Command {
	var (
		o         outputFlags
		by, order string
	)
	cmd := &cobra.Command{
		Use:   "group [file]",
		Short: "Count records per field value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := o.output()
			if err != nil {
				return err
			}
			a.code = cli.RunGroup(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.source(args), by, order, out)
			return nil
		},
	}
	o.add(cmd.Flags())
	cmd.Flags().StringVar(&by, "by", "level", "field: "+strings.Join(repository.FieldNames(), ", "))
	cmd.Flags().StringVar(&order, "order", "count-desc", "alpha-asc, alpha-desc, count-desc or count-asc")
	return cmd
}

func (a *app) sessionsCmd() *cobra.Command {
	var o outputFlags
	cmd := &cobra.Command{
		Use:   "sessions [file]",
		Short: "List session headers with their entry counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := o.output()
			if err != nil {
				return err
			}
			a.code = cli.RunSessions(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.source(args), out)
			return nil
		},
	}
	o.add(cmd.Flags())
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Parse a whole file and report the first bad line",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a.code = cli.RunCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.source(args))
		},
	}
}

func (a *app) renderCmd() *cobra.Command {
	var (
		q      queryFlags
		out    string
		params []string
	)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Append records to an aligned table file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := q.options()
			if err != nil {
				return err
			}
			a.code = cli.RunRender(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.source(args), out, params, opts)
			return nil
		},
	}
	q.add(cmd.Flags())
	cmd.Flags().StringVar(&out, "out", "", "table file to append to")
	cmd.Flags().StringArrayVar(&params, "param", nil, "extra header line (repeatable)")
	return cmd
}

func (a *app) extractCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "extract pattern...",
		Short: "Combine log files, oldest first",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a.code = cli.RunExtract(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write to this file instead of stdout")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Print matching records as the file grows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := q.options()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			a.code = cli.RunWatch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), a.source(args), opts)
			return nil
		},
	}
	q.add(cmd.Flags())
	return cmd
}

func (a *app) emitCmd() *cobra.Command {
	var opts cli.EmitOptions
	cmd := &cobra.Command{
		Use:   "emit message",
		Short: "Write one entry through the configured sinks",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts.Message = args[0]
			cfg := *a.cfg
			if k := a.v.GetString("key"); k != "" {
				cfg.Log.Key = k
			}
			a.code = cli.RunEmit(cmd.OutOrStdout(), cmd.ErrOrStderr(), &cfg, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.Label, "label", "", "label (default app.label)")
	fs.StringVarP(&opts.Level, "level", "l", "info", "level")
	fs.StringArrayVar(&opts.Meta, "meta", nil, "metadata key=value (repeatable)")
	fs.StringVar(&opts.Signpost, "signpost", "", "write a begin/end signpost pair in this group")
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve log query tools over stdio (Model Context Protocol)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			src := a.source(nil)
			a.code = cli.RunMCP(cmd.ErrOrStderr(), mcpserver.Options{
				Version:     version,
				DefaultPath: src.Path,
				Key:         src.Key,
			})
		},
	}
}
