package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/engine"
	"github.com/dshills/blockstorm/internal/preview"
	"github.com/dshills/blockstorm/internal/script"
)

const replHelp = `Lines are Lua, run against the "editor" module. Meta commands:
  :show            render the document
  :json            print the snapshot
  :undo / :redo    step through history
  :history         list undo entries
  :snap NAME       take a named snapshot
  :snaps           list snapshots
  :forget NAME     drop a snapshot
  :prune N|AGE     keep N snapshots, or drop those older than AGE (e.g. 10m)
  :diff [A [B]]    block diff from the session start or snapshot A to now or B
  :changes [NAME]  changes since the session start or a snapshot
  :commands        list commands
  :save [file]     save the document
  :quit            leave`

// reloadDebounce is how long the repl waits for config writes to settle.
const reloadDebounce = 200 * time.Millisecond

type repl struct {
	c      *cli
	e      *engine.Engine
	host   *script.Host
	render *preview.Renderer
	path   string
	start  engine.SnapshotID
}

func (c *cli) replCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl [doc.json]",
		Short: "Edit a document interactively with Lua",
		Long: `Read Lua lines from stdin and run them against a document.

With --config the configuration file is watched; changes such as read_only
take effect without restarting.

` + replHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			var (
				e   *engine.Engine
				err error
			)
			path := ""
			if len(args) == 1 {
				path = args[0]
				e, err = c.openDoc(path)
			} else {
				e, err = c.newEngine()
			}
			if err != nil {
				return err
			}

			unsubscribe := e.Subscribe(func(u engine.Update) {
				if u.Transaction != nil && u.DocChanged() {
					c.logger.Debug("revision %d: %s", u.Revision, u.Transaction.Metadata().Description)
				}
			})
			defer unsubscribe()

			if c.cfgPath != "" {
				reloader, err := config.NewReloader(c.cfgPath, reloadDebounce, c.logger)
				if err != nil {
					return err
				}
				defer reloader.Close()
				reloader.OnReload(func(cfg *config.Config, err error) {
					if err != nil {
						return
					}
					cfg.Apply(e)
					c.logger.Info("applied new configuration (read_only=%t)", cfg.Editor.ReadOnly)
				})
			}

			host := script.New(e, script.WithLogger(c.logger), script.WithOutput(c.out))
			defer host.Close()

			r := &repl{
				c:      c,
				e:      e,
				host:   host,
				render: c.renderer(cmd),
				path:   path,
				start:  e.CreateSnapshot("session start"),
			}
			prompt, _ := cmd.Flags().GetBool("prompt")
			return r.loop(ctx, prompt)
		},
	}
	addPreviewFlags(cmd)
	cmd.Flags().Bool("prompt", true, "print a prompt before each line")
	return cmd
}

var errQuit = errors.New("quit")

func (r *repl) loop(ctx context.Context, prompt bool) error {
	out := r.c.out
	scanner := bufio.NewScanner(r.c.in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		err := r.eval(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (r *repl) eval(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, ":") {
		return r.host.DoString(ctx, line)
	}
	out := r.c.out
	fields := strings.Fields(line)
	switch fields[0] {
	case ":q", ":quit", ":exit":
		return errQuit
	case ":help":
		fmt.Fprintln(out, replHelp)
	case ":show":
		fmt.Fprintln(out, r.render.Render(r.e.State()))
	case ":json":
		return r.c.saveDoc(r.e, "-")
	case ":undo":
		return r.e.Undo(ctx)
	case ":redo":
		return r.e.Redo(ctx)
	case ":history":
		fmt.Fprintln(out, describe(r.e.UndoInfo()))
	case ":snap":
		if len(fields) != 2 {
			return errors.New("usage: :snap NAME")
		}
		r.e.CreateSnapshot(fields[1])
	case ":snaps":
		for _, snap := range r.e.ListSnapshots() {
			fmt.Fprintf(out, "%s  r%d  %s ago\n", snap.Name, snap.Revision, snap.Age().Round(time.Second))
		}
	case ":forget":
		if len(fields) != 2 {
			return errors.New("usage: :forget NAME")
		}
		r.e.DeleteSnapshotByName(fields[1])
	case ":prune":
		return r.prune(fields[1:])
	case ":diff":
		return r.diff(fields[1:])
	case ":changes":
		return r.changes(fields[1:])
	case ":commands":
		names := append(r.e.Registry().List(), r.host.Commands()...)
		fmt.Fprintln(out, strings.Join(names, " "))
	case ":save":
		path := r.path
		if len(fields) > 1 {
			path = fields[1]
		}
		if path == "" {
			return errors.New("no file to save to")
		}
		if err := r.c.saveDoc(r.e, path); err != nil {
			return err
		}
		r.path = path
		fmt.Fprintf(out, "saved %s\n", path)
	default:
		return fmt.Errorf("unknown meta command %s (try :help)", fields[0])
	}
	return nil
}

// snapshot resolves a snapshot name; no name means the session start.
func (r *repl) snapshot(names []string, i int) (engine.SnapshotID, error) {
	if len(names) <= i {
		return r.start, nil
	}
	snap, err := r.e.GetSnapshotByName(names[i])
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, names[i])
	}
	return snap.ID, nil
}

func (r *repl) diff(args []string) error {
	from, err := r.snapshot(args, 0)
	if err != nil {
		return err
	}
	var d engine.DiffResult
	if len(args) > 1 {
		to, err := r.snapshot(args, 1)
		if err != nil {
			return err
		}
		d, err = r.e.DiffBetweenSnapshots(from, to)
		if err != nil {
			return err
		}
	} else if d, err = r.e.DiffSinceSnapshot(from); err != nil {
		return err
	}
	if !d.HasChanges() {
		fmt.Fprintln(r.c.out, "(no changes)")
		return nil
	}
	fmt.Fprint(r.c.out, d.String())
	return nil
}

func (r *repl) changes(args []string) error {
	id, err := r.snapshot(args, 0)
	if err != nil {
		return err
	}
	cs, err := r.e.ChangesSinceSnapshot(id)
	if err != nil {
		return err
	}
	for _, c := range cs.Changes {
		fmt.Fprintln(r.c.out, c.String())
	}
	fmt.Fprintln(r.c.out, cs.Summary())
	return nil
}

func (r *repl) prune(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: :prune N|AGE")
	}
	var removed int
	if n, err := strconv.Atoi(args[0]); err == nil {
		// The session start snapshot is one of the n kept.
		removed = r.e.KeepSnapshots(n)
	} else {
		age, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("prune: %q is neither a count nor a duration", args[0])
		}
		removed = r.e.PruneSnapshots(age)
	}
	fmt.Fprintf(r.c.out, "pruned %d\n", removed)
	return nil
}
