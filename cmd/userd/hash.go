package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"project-users/internal/auth"
)

// hashCmd prints a bcrypt digest, handy for seeding users by hand.
var hashCmd = &cobra.Command{
	Use:   "hash <password>",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		digest, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(digest)
		return nil
	},
}
