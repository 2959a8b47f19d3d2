// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferrex/mediaserver/internal/envsetup"
)

func newInitCommand() *cobra.Command {
	var (
		envPath        string
		tailscale      bool
		rotateFlag     string
		nonInteractive bool
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate or merge the managed .env secrets (spec.md §6)",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseRotateTarget(rotateFlag)
			if err != nil {
				return err
			}

			result, err := envsetup.Init(envsetup.Options{
				EnvPath:        envPath,
				Tailscale:      tailscale,
				Rotate:         target,
				NonInteractive: nonInteractive,
				WriteFile:      !dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(result.Lines))
			for _, line := range result.Lines {
				if line == "" || line[0] == '#' {
					continue
				}
				for i := 0; i < len(line); i++ {
					if line[i] == '=' {
						rows = append(rows, []string{line[:i], line[i+1:]})
						break
					}
				}
			}
			fmt.Fprintln(out, renderTable([]string{"KEY", "VALUE"}, rows))

			if len(result.RotatedKeys) > 0 {
				fmt.Fprintf(out, "rotated: %v\n", result.RotatedKeys)
			}
			if dryRun {
				fmt.Fprintln(out, "(dry run: nothing written)")
			} else {
				fmt.Fprintf(out, "wrote %s\n", envPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envPath, "env-path", ".env", "Path to the .env file to merge into")
	cmd.Flags().BoolVar(&tailscale, "tailscale", false, "Use Tailscale-proxy-friendly container hosts")
	cmd.Flags().StringVar(&rotateFlag, "rotate", "none", "Secrets to rotate: none|db|auth|all")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Use reproducible dev placeholders for newly-generated secrets")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the merge without writing the file")

	return cmd
}

func parseRotateTarget(s string) (envsetup.RotateTarget, error) {
	switch s {
	case "", "none":
		return envsetup.RotateNone, nil
	case "db":
		return envsetup.RotateDb, nil
	case "auth":
		return envsetup.RotateAuth, nil
	case "all":
		return envsetup.RotateAll, nil
	default:
		return envsetup.RotateNone, fmt.Errorf("unknown --rotate target %q (want none|db|auth|all)", s)
	}
}
