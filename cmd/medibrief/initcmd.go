// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medibrief/pkg/types"
)

const defaultConfigFile = "medibrief.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter medibrief.yaml and create working directories",
	Long: `Init writes medibrief.yaml with every required section filled with
working defaults, and creates the output, temp, credentials and .secrets
directories. An existing config file is kept unless --force is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	initCmd.Flags().String("dir", ".", "directory to initialize")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	dir, _ := cmd.Flags().GetString("dir")
	return initWorkspace(dir, force, cmd.OutOrStdout())
}

// initWorkspace scaffolds dir with the default config and directories.
func initWorkspace(dir string, force bool, w io.Writer) error {
	cfg := types.DefaultConfig()

	for _, d := range []string{
		cfg.OutputDir,
		cfg.PDFProcessing.TempStoragePath,
		filepath.Dir(cfg.Credentials.YouTubeTokenFile),
		filepath.Dir(cfg.Logging.File),
		secretsDir,
	} {
		if d == "" || d == "." {
			continue
		}
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}

	path := filepath.Join(dir, defaultConfigFile)
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(w, "%s already exists (use --force to overwrite)\n", path)
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	fmt.Fprintln(w, "Next: set api_keys.gcp_project_id, add secrets under .secrets/, then run medibrief auth.")
	return nil
}
