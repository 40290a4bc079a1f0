package configcmder

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cortex/pkg/config"
)

const configLongDesc string = `Inspect and create cortex configuration files.`

const initLongDesc string = `Write a default configuration file.

The file lists every setting with its default. Values can still be
overridden by environment variables.

Examples:
  cortex config init
  cortex config init ~/.config/cortex.toml
  cortex config init --force`

type initCommander struct {
	force bool
}

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())

	return cmd
}

func newInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Long:  initLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			return cmder.run(cmd, path)
		},
	}

	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command, path string) error {
	if !c.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	var buf bytes.Buffer
	if err := config.WriteDefault(&buf); err != nil {
		return fmt.Errorf("could not render default config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
