// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/medibrief/internal/publish"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize video uploads and cache the token",
	Long: `Auth runs the OAuth device flow with the client secrets named by
credentials.youtube_client_secrets. Visit the printed URL, enter the code,
and the token is written to credentials.youtube_token_file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		oc, err := publish.OAuthConfig(cfg.Credentials.YouTubeClientSecrets)
		if err != nil {
			return err
		}
		return publish.Authorize(cmd.Context(), oc, cfg.Credentials.YouTubeTokenFile, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
