package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Strob0t/crmlite/internal/domain/user"
	"github.com/Strob0t/crmlite/internal/service"
)

func newSeedCmd(c *cli) *cobra.Command {
	var req user.CreateRequest
	var name string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo opportunity set for a user",
		Example: `  crmlite seed --user auth0|123 --email rep@example.com
  crmlite seed --user auth0|123 --email rep@example.com --name "Sales Rep"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name != "" {
				req.FullName = &name
			}

			sd, err := openStore(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer sd.close()
			if err := sd.store.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}

			res, err := service.SeedDemoData(cmd.Context(), sd.store, req)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "user %s already has opportunities, nothing seeded\n", req.ID)
				return nil
			}
			fmt.Fprintf(out, "seeded %d opportunities and %d interactions for %s\n",
				res.Opportunities, res.Interactions, req.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ID, "user", "", "user id from the identity provider (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&name, "name", "", "user full name")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
