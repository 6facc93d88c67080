package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize the run configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the run root",
		RunE:  runConfigInit,
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		RunE:  runConfigValidate,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(runRoot)
	if err != nil {
		return err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(runRoot)
	if err != nil {
		return err
	}

	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	if exists {
		cmd.Printf("Configuration already exists at %s\n", pp.ConfigFile)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(pp.ConfigFile), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}

	cfg := config.Default()
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	cmd.Printf("Wrote %s\n", pp.ConfigFile)
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(runRoot)
	if err != nil {
		return err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}

	issues := cfg.Validate()
	if len(issues) == 0 {
		cmd.Println("Configuration OK")
		return nil
	}

	for _, issue := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", issue.Level, issue.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration has errors")
	}
	return nil
}
