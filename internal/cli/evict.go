package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Drop stale chunks from the knowledge base",
		Run:   runEvict,
	}

	cmd.Flags().IntP("max-age-days", "a", 90, "Remove chunks older than this many days")

	RootCmd.AddCommand(cmd)
}

func runEvict(cmd *cobra.Command, args []string) {
	maxAge, _ := cmd.Flags().GetInt("max-age-days")

	a := buildApp()
	defer a.close()

	removed, err := a.rag.ApplyFreshnessPolicy(cmd.Context(), maxAge)
	if err != nil {
		exitErr("evict", err)
	}
	fmt.Printf("removed %d chunks (%d remaining)\n", removed, a.rag.Len())
}
