package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Manage permission grids",
		Long:  "Inspect and seed the per-role permission grids stored in the database.",
	}

	cmd.AddCommand(newPermsSeedCmd())
	cmd.AddCommand(newPermsShowCmd())

	return cmd
}

func newPermsSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default permission grids",
		Long:  "Insert the default grid for every role. Does nothing if grids already exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SeedDefaultGrants(context.Background()); err != nil {
				return fmt.Errorf("seed grants: %w", err)
			}

			count, err := st.CountGrants(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Permission grids in place: %d\n", count)
			return nil
		},
	}
}

func newPermsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored permission grids as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			grants, err := st.ListGrants(context.Background())
			if err != nil {
				return fmt.Errorf("list grants: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(grants)
		},
	}
}
