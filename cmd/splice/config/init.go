package configcmder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/splice/pkg/cliui"
	"github.com/papercomputeco/splice/pkg/config"
)

const dirName = ".splice"

const initLongDesc string = `Initialize a local .splice/ directory with a fresh config.toml.

Creates a .splice/ directory in the current working directory that takes
precedence over the default ~/.splice/ directory, then writes a config.toml
seeded from a preset. An existing config.toml is never overwritten.

Presets:
  openai       api.openai.com with OPENAI_API_KEY
  openrouter   openrouter.ai with OPENROUTER_API_KEY
  mock         the local mock server with SPLICE_MOCK_KEY

Examples:
  splice config init
  splice config init --preset openrouter`

const initShortDesc string = "Initialize a local .splice/ directory"

func newInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		"Endpoint preset to seed the config with ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .splice directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		fmt.Printf("\n  %s %s\n\n",
			cliui.DimStyle.Render("Config already exists:"),
			cliui.ValueStyle.Render(cfger.GetTarget()),
		)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.NewDefaultConfig()
	if preset != "" {
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("\n  %s Initialized %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(cfger.GetTarget()),
	)
	if preset != "" {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render("Preset:"),
			cliui.NameStyle.Render(strings.ToLower(preset)),
		)
	}
	fmt.Println()

	return nil
}
