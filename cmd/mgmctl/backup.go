package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mgm-veiculos/mgm-api-go/internal/app"
)

func (c *cli) newBackupCmd() *cobra.Command {
	backup := &cobra.Command{
		Use:   "backup",
		Short: "Export, import or erase the mgm_ keys",
	}

	var format, out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every stored key with its raw JSON text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				data, err := a.Settings.Export(cmd.Context())
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return encodeBackup(w, format, data)
			})
		},
	}
	export.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	export.Flags().StringVarP(&out, "out", "o", "", "file to write instead of stdout")

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a backup file (.json, .yaml or .yml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readBackup(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Settings.Import(cmd.Context(), payload)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported: %s\n", strings.Join(res.Imported, ", "))
				if len(res.Skipped) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s\n", strings.Join(res.Skipped, ", "))
				}
				return nil
			})
		},
	}

	backup.AddCommand(export, imp, c.newResetCmd())
	return backup
}

func encodeBackup(w io.Writer, format string, data map[string]string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (json or yaml)", format)
}

// readBackup decodes a backup file by extension. YAML files carry the same
// key to JSON-text mapping as the JSON export.
func readBackup(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &payload)
	default:
		err = json.Unmarshal(raw, &payload)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%s: backup must be an object", path)
	}
	return payload, nil
}

func (c *cli) newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase every mgm_ key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset erases all data; pass --yes to confirm")
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				deleted, err := a.Settings.Reset(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d keys\n", len(deleted))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
