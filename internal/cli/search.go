package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the knowledge base",
		Long:  "Rank indexed chunks against the query by vector similarity, keyword overlap, and freshness.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("top", "t", 5, "Maximum results")
	cmd.Flags().IntP("window", "w", 45, "Freshness window in days")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	top, _ := cmd.Flags().GetInt("top")
	window, _ := cmd.Flags().GetInt("window")

	a := buildApp()
	defer a.close()

	hits := a.rag.Search(cmd.Context(), strings.Join(args, " "), top, window)
	b, _ := json.MarshalIndent(hits, "", "  ")
	fmt.Println(string(b))
}
