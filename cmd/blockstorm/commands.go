package main

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/dshills/blockstorm/internal/engine"
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/script"
)

func (c *cli) newCmd() *cobra.Command {
	var (
		title string
		paras []string
	)
	cmd := &cobra.Command{
		Use:   "new [file]",
		Short: "Create a document",
		Long: `Create a document snapshot. Without a file the snapshot is written to stdout.

Examples:
  blockstorm new notes.json --title "Notes" --text "first" --text "second"
  blockstorm new > empty.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids model.UUIDGenerator
			var blocks []*model.Block
			if title != "" {
				blocks = append(blocks, model.NewBlock(ids.NewID(), schema.Heading,
					model.Attrs{"level": 1}, model.NewText(title)))
			}
			for _, p := range paras {
				var children []model.Node
				if p != "" {
					children = append(children, model.NewText(p))
				}
				blocks = append(blocks, model.NewBlock(ids.NewID(), schema.Paragraph, nil, children...))
			}
			var opts []engine.Option
			if len(blocks) > 0 {
				opts = append(opts, engine.WithDocument(model.NewDocument(blocks...)))
			}
			e, err := c.newEngine(opts...)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return c.saveDoc(e, path)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "start with a heading")
	cmd.Flags().StringArrayVar(&paras, "text", nil, "add a paragraph (repeatable)")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <doc.json>",
		Short: "Render a document in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.openDoc(args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return c.saveDoc(e, "-")
			}
			if stats, _ := cmd.Flags().GetBool("stats"); stats {
				return c.stats(e)
			}
			_, err = fmt.Fprintln(c.out, c.renderer(cmd).Render(e.State()))
			return err
		},
	}
	addPreviewFlags(cmd)
	cmd.Flags().Bool("json", false, "print the normalized snapshot instead")
	cmd.Flags().Bool("stats", false, "print block and character counts instead")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	var (
		output   string
		commands []string
		dryRun   bool
		quiet    bool
		diff     bool
	)
	cmd := &cobra.Command{
		Use:   "run <doc.json> <script.lua>",
		Short: "Edit a document with a Lua script",
		Long: `Run a Lua script against a document and save the result.

The script drives the editor through the global "editor" module. Commands the
script registers with editor.register_command can be run afterwards with
--command; each one is a single undo step.

Examples:
  blockstorm run notes.json bold-first-line.lua
  blockstorm run notes.json macros.lua --command title --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			e, err := c.openDoc(args[0])
			if err != nil {
				return err
			}
			base := e.CreateSnapshot("before run")

			host := script.New(e, script.WithLogger(c.logger), script.WithOutput(c.out))
			defer host.Close()
			if err := host.DoFile(ctx, args[1]); err != nil {
				return err
			}
			for _, name := range commands {
				if err := host.RunCommand(ctx, name); err != nil {
					return err
				}
			}

			if diff {
				d, err := e.DiffSinceSnapshot(base)
				if err != nil {
					return err
				}
				fmt.Fprint(c.out, d.String())
			} else if !quiet {
				fmt.Fprintln(c.out, c.renderer(cmd).Render(e.State()))
			}
			if dryRun {
				return nil
			}
			if output == "" {
				output = args[0]
			}
			return c.saveDoc(e, output)
		},
	}
	addPreviewFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of over the input (- for stdout)")
	cmd.Flags().StringArrayVar(&commands, "command", nil, "run a script-defined command after loading (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not save the result")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the result")
	cmd.Flags().BoolVar(&diff, "diff", false, "print a block diff instead of the result")
	return cmd
}

// describe lists undo entries for the repl's :history.
func describe(infos []engine.OperationInfo) string {
	if len(infos) == 0 {
		return "(empty)"
	}
	lines := make([]string, len(infos))
	for i, info := range infos {
		lines[i] = fmt.Sprintf("%d. %s (%d steps)", i+1, info.Description, info.Steps)
	}
	return strings.Join(lines, "\n")
}

func (c *cli) stats(e *engine.Engine) error {
	st := e.State()
	chars := 0
	for _, id := range st.GetBlockOrder() {
		b, _ := st.GetBlock(id)
		chars += utf8.RuneCountInString(model.GetBlockText(b))
	}
	_, err := fmt.Fprintf(c.out, "blocks: %d\ntext blocks: %d\ncharacters: %d\nselection: %s\n",
		st.BlockCount(), e.BlockCount(), chars, st.Selection())
	return err
}
