package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hiringscan-engine/internal/config"
	"hiringscan-engine/internal/logger"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check configuration files",
		// config commands work on files directly and must not bootstrap one
		PersistentPreRunE: func(*cobra.Command, []string) error {
			log, err := logger.New(a.logLevel, a.console)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.SaveAtomic(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Report configuration errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			_, res := config.NormalizeAndValidate(cfg)
			out := cmd.OutOrStdout()
			for _, w := range res.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			for _, e := range res.Errors {
				fmt.Fprintln(out, "error:", e)
			}
			if !res.OK() {
				return fmt.Errorf("%d config error(s)", len(res.Errors))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
