package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"secret-notes/auth"
	"secret-notes/db"
)

var useraddPassword string

var useraddCmd = &cobra.Command{
	Use:   "useradd <username>",
	Short: "Create a user directly in the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if useraddPassword == "" {
			return errors.New("--password is required")
		}

		store, err := db.Open(cfg.StoreOptions())
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", cfg.Storage, err)
		}
		defer store.Close()

		hasher, err := newHasher(cfg)
		if err != nil {
			return err
		}

		username := args[0]
		if err := auth.NewUserStoreAuthenticator(store, hasher).Register(cmd.Context(), username, useraddPassword); err != nil {
			return fmt.Errorf("failed to add user %s: %w", username, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useraddCmd)
	useraddCmd.Flags().StringVarP(&useraddPassword, "password", "p", "", "Password for the new user")
}
