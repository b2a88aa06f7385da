package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler"
	"github.com/slowlang/tailopt/compiler/opt"
)

// watchAct re-optimizes the files every time they are written.
func watchAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "new watcher")
	}

	defer func() {
		e := w.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close watcher")
		}
	}()

	files := map[string]struct{}{}

	for _, a := range c.Args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return errors.Wrap(err, "%v", a)
		}

		files[abs] = struct{}{}

		// editors often replace files, so watch the directory
		err = w.Add(filepath.Dir(abs))
		if err != nil {
			return errors.Wrap(err, "watch %v", a)
		}

		reoptimize(ctx, optConfig(c), abs)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if _, ok := files[ev.Name]; !ok {
				continue
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			reoptimize(ctx, optConfig(c), ev.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			return errors.Wrap(err, "watcher")
		}
	}
}

func reoptimize(ctx context.Context, cfg opt.Config, name string) {
	tr := tlog.SpanFromContext(ctx)

	u, err := compiler.OptimizeFile(ctx, name, cfg)
	if err != nil {
		tr.Printw("optimize", "file", name, "err", err)
		return
	}

	err = printUnit(ctx, u, false)
	if err != nil {
		tr.Printw("print", "file", name, "err", err)
	}
}
