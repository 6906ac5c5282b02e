package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/engine"
	"github.com/dshills/blockstorm/internal/logging"
	"github.com/dshills/blockstorm/internal/preview"
)

// EnvPrefix prefixes environment overrides, e.g. BLOCKSTORM_READ_ONLY.
const EnvPrefix = "BLOCKSTORM"

// cli carries what every subcommand shares.
type cli struct {
	v      *viper.Viper
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg      *config.Config
	cfgPath  string
	logger   *logging.Logger
	closeLog func() error
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "blockstorm",
		Short:         "Block-structured rich-text editing from the command line",
		Long:          `blockstorm creates, inspects and edits rich-text documents stored as JSON snapshots. Edits are scripted in Lua.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (.toml or .yaml)")
	flags.Bool("read-only", false, "reject document edits")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "append logs to this file")
	_ = c.v.BindPFlag("config", flags.Lookup("config"))
	_ = c.v.BindPFlag("read_only", flags.Lookup("read-only"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("log_file", flags.Lookup("log-file"))

	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		c.newCmd(),
		c.showCmd(),
		c.runCmd(),
		c.replCmd(),
		c.versionCmd(),
	)
	return root
}

// init loads the config file and applies flag and environment overrides.
func (c *cli) init() error {
	c.cfgPath = c.v.GetString("config")
	cfg, err := config.LoadOrDefault(c.cfgPath)
	if err != nil {
		return err
	}
	if c.v.IsSet("read_only") {
		cfg.Editor.ReadOnly = c.v.GetBool("read_only")
	}
	if lvl := c.v.GetString("log_level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if f := c.v.GetString("log_file"); f != "" {
		cfg.Log.File = f
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	logger, closeLog, err := cfg.Logger(c.errOut)
	if err != nil {
		return err
	}
	c.logger = logger.WithCategory(logging.CatCLI)
	c.closeLog = closeLog
	c.logger.Debug("config loaded from %q", c.cfgPath)
	return nil
}

func (c *cli) close() error {
	if c.closeLog == nil {
		return nil
	}
	err := c.closeLog()
	c.closeLog = nil
	return err
}

func (c *cli) configDir() string {
	if c.cfgPath == "" {
		return ""
	}
	return filepath.Dir(c.cfgPath)
}

// newEngine builds an engine from the configuration.
func (c *cli) newEngine(extra ...engine.Option) (*engine.Engine, error) {
	opts, err := c.cfg.EngineOptions(c.configDir())
	if err != nil {
		return nil, err
	}
	opts = append(opts, engine.WithLogger(c.logger))
	return engine.New(append(opts, extra...)...), nil
}

// openDoc builds an engine holding the snapshot at path.
func (c *cli) openDoc(path string) (*engine.Engine, error) {
	e, err := c.newEngine()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	if err := e.Load(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// saveDoc writes the engine's state to path, or to stdout for "-".
func (c *cli) saveDoc(e *engine.Engine, path string) error {
	var buf bytes.Buffer
	if err := e.Save(&buf); err != nil {
		return err
	}
	buf.WriteByte('\n')
	if path == "-" || path == "" {
		_, err := c.out.Write(buf.Bytes())
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	c.logger.Debug("saved %s", path)
	return nil
}

func (c *cli) renderer(cmd *cobra.Command) *preview.Renderer {
	width, _ := cmd.Flags().GetInt("width")
	ids, _ := cmd.Flags().GetBool("ids")
	noSel, _ := cmd.Flags().GetBool("no-selection")
	return preview.New(c.out,
		preview.WithWidth(width),
		preview.WithBlockIDs(ids),
		preview.WithSelection(!noSel),
	)
}

func addPreviewFlags(cmd *cobra.Command) {
	cmd.Flags().Int("width", 0, "wrap text at this many columns (0 = no wrapping)")
	cmd.Flags().Bool("ids", false, "show block ids")
	cmd.Flags().Bool("no-selection", false, "hide the cursor and selection")
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(c.out, "blockstorm %s (commit: %s, built: %s)\n", version, commit, date)
			return err
		},
	}
}
