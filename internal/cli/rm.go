package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete a stored value",
		Run:   runRm,
	}

	cmd.Flags().StringP("ns", "n", "", "Namespace (required)")
	cmd.Flags().StringP("key", "k", "", "Key (required)")

	cmd.MarkFlagRequired("ns")
	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")

	a := buildApp()
	defer a.close()

	deleted, err := a.store.Delete(cmd.Context(), ns, key)
	if err != nil {
		exitErr("rm", err)
	}
	if !deleted {
		exitErr("rm", fmt.Errorf("not found: %s/%s", ns, key))
	}
	fmt.Printf("deleted %s/%s\n", ns, key)
}
