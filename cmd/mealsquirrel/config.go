package main

import (
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath, "", "", "")
			if err != nil {
				return err
			}
			redact(&cfg.Admin.Token)
			redact(&cfg.Cache.Redis.Password)
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	return cmd
}

// redact masks a configured secret so it never ends up in a terminal or log.
func redact(s *string) {
	if *s != "" {
		*s = "redacted"
	}
}
