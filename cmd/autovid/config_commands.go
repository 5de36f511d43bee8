package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autovid/autovid-editor/internal/config"
	"github.com/autovid/autovid-editor/internal/logging"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if _, err := os.Stat(target); err == nil {
				if !overwrite {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("remove existing config: %w", err)
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set [credits] url (or export AUTOVID_CREDITS_URL) to charge exports against the credit service.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := "defaults and environment"
			if path, loaded := cfg.Path(); loaded {
				source = path
			}

			creditsURL := cfg.CreditsURL()
			if creditsURL == "" {
				creditsURL = "(stub, exports are free)"
			}
			token := "(none)"
			if cfg.CreditsToken() != "" {
				token = logging.SanitizeToken(cfg.CreditsToken())
			}
			origins := "loopback only"
			if len(cfg.AllowedOrigins()) > 0 {
				origins = "loopback, " + strings.Join(cfg.AllowedOrigins(), ", ")
			}

			rows := [][]string{
				{"config", source},
				{"port", strconv.Itoa(cfg.Port())},
				{"log level", cfg.LogLevel()},
				{"data dir", logging.SanitizePath(cfg.DataDir())},
				{"database", logging.SanitizePath(cfg.DBPath())},
				{"exports", logging.SanitizePath(cfg.ExportDir())},
				{"credits url", creditsURL},
				{"credits token", token},
				{"upload max", fmt.Sprintf("%gs", cfg.UploadMaxDuration())},
				{"export fps", fmt.Sprintf("%g", cfg.ExportFPS())},
				{"export poll", cfg.ExportPollInterval().String()},
				{"cors origins", origins},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
}
