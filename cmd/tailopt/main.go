package main

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/xyproto/env/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler"
	"github.com/slowlang/tailopt/compiler/eval"
	"github.com/slowlang/tailopt/compiler/format"
	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/irfile"
	"github.com/slowlang/tailopt/compiler/opt"
)

func main() {
	def := opt.ConfigFromEnv()

	optFlags := func() []*cli.Flag {
		return []*cli.Flag{
			cli.NewFlag("max-args", def.MaxArgs, "max arguments of a call turned into a loop"),
			cli.NewFlag("no-tce", def.NoTailCalls, "disable self tail call elimination"),
			cli.NewFlag("no-cond", def.NoConditionals, "disable conditionals normalization"),
		}
	}

	dumpCmd := &cli.Command{
		Name:   "dump",
		Action: dumpAct,
		Args:   cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("yaml", false, "print yaml instead of text"),
		},
	}

	optCmd := &cli.Command{
		Name:   "opt",
		Action: optAct,
		Args:   cli.Args{},
		Flags: append(optFlags(),
			cli.NewFlag("yaml", false, "print yaml instead of text"),
		),
	}

	runCmd := &cli.Command{
		Name:   "run",
		Action: runAct,
		Args:   cli.Args{},
		Flags: append(optFlags(),
			cli.NewFlag("args", "", "comma separated root proc arguments"),
			cli.NewFlag("no-opt", false, "evaluate the unoptimized tree"),
			cli.NewFlag("max-depth", env.Int("TAILOPT_MAX_DEPTH", eval.DefaultMaxDepth), "max call depth"),
		),
	}

	watchCmd := &cli.Command{
		Name:   "watch",
		Action: watchAct,
		Args:   cli.Args{},
		Flags:  optFlags(),
	}

	app := &cli.Command{
		Name:        "tailopt",
		Description: "tailopt optimizes procedure trees: normalizes conditionals and turns self tail calls into loops",
		Commands: []*cli.Command{
			dumpCmd,
			optCmd,
			runCmd,
			watchCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func optConfig(c *cli.Command) opt.Config {
	return opt.Config{
		MaxArgs:        c.Int("max-args"),
		NoTailCalls:    c.Bool("no-tce"),
		NoConditionals: c.Bool("no-cond"),
	}
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		u, err := compiler.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		err = printUnit(ctx, u, c.Bool("yaml"))
		if err != nil {
			return errors.Wrap(err, "print %v", a)
		}
	}

	return nil
}

func optAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	units := make([]*ir.Unit, len(c.Args))

	for i, a := range c.Args {
		units[i], err = compiler.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}
	}

	err = compiler.OptimizeUnits(ctx, units, optConfig(c))
	if err != nil {
		return err
	}

	for i, u := range units {
		err = printUnit(ctx, u, c.Bool("yaml"))
		if err != nil {
			return errors.Wrap(err, "print %v", c.Args[i])
		}
	}

	return nil
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	args, err := parseArgs(c.String("args"))
	if err != nil {
		return errors.Wrap(err, "args")
	}

	cfg := eval.Config{
		MaxDepth: c.Int("max-depth"),
	}

	for _, a := range c.Args {
		u, err := compiler.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		if !c.Bool("no-opt") {
			err = compiler.Optimize(ctx, u, optConfig(c))
			if err != nil {
				return errors.Wrap(err, "%v", a)
			}
		}

		v, st, err := eval.Run(ctx, u, cfg, args...)
		if err != nil {
			return errors.Wrap(err, "run %v", a)
		}

		_, err = os.Stdout.WriteString(strconv.Quote(a) + ": " + valueString(v) + "\n")
		if err != nil {
			return err
		}

		tlog.SpanFromContext(ctx).Printw("stats", "file", a, "calls", st.Calls, "iterations", st.Iterations, "max_depth", st.MaxDepth)
	}

	return nil
}

func printUnit(ctx context.Context, u *ir.Unit, yaml bool) (err error) {
	var b []byte

	if yaml {
		b, err = irfile.Encode(u)
	} else {
		b, err = format.Unit(ctx, nil, u)
	}
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(b)

	return err
}

func parseArgs(s string) (args []eval.Value, err error) {
	if s == "" {
		return nil, nil
	}

	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)

		switch f {
		case "true", "#t":
			args = append(args, true)
			continue
		case "false", "#f":
			args = append(args, false)
			continue
		}

		x, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "arg %q", f)
		}

		args = append(args, x)
	}

	return args, nil
}

func valueString(v eval.Value) string {
	switch v := v.(type) {
	case nil:
		return "()"
	case bool:
		if v {
			return "#t"
		}

		return "#f"
	case int64:
		return strconv.FormatInt(v, 10)
	case *eval.Closure:
		return "#<procedure>"
	case []eval.Value:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = valueString(x)
		}

		return "#(" + strings.Join(parts, " ") + ")"
	default:
		return "#<unknown>"
	}
}
