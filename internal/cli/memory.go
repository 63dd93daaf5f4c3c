package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sidekick/internal/memory"
)

func init() {
	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage embedded conversation memory",
	}

	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Store a conversation snippet",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMemoryAdd,
	}
	addCmd.Flags().StringP("category", "g", "general", "Persona category")
	addCmd.Flags().StringP("user", "u", "local", "User id")

	recallCmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Recall relevant past snippets",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMemoryRecall,
	}
	recallCmd.Flags().StringP("category", "g", "general", "Persona category")
	recallCmd.Flags().StringP("user", "u", "local", "User id")
	recallCmd.Flags().IntP("top", "t", memory.DefaultTopK, "Maximum results")
	recallCmd.Flags().Float64P("min", "m", memory.DefaultMinSimilarity, "Similarity floor")

	consolidateCmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Thin a user's history once it grows past the threshold",
		Run:   runMemoryConsolidate,
	}
	consolidateCmd.Flags().StringP("category", "g", "general", "Persona category")
	consolidateCmd.Flags().StringP("user", "u", "local", "User id")
	consolidateCmd.Flags().Int("threshold", 100, "Entry count that triggers thinning")

	forgetCmd := &cobra.Command{
		Use:   "forget",
		Short: "Delete every snippet stored for a user in a category",
		Run:   runMemoryForget,
	}
	forgetCmd.Flags().StringP("category", "g", "general", "Persona category")
	forgetCmd.Flags().StringP("user", "u", "local", "User id")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show conversation memory statistics",
		Run:   runMemoryStats,
	}

	memoryCmd.AddCommand(addCmd, recallCmd, consolidateCmd, forgetCmd, statsCmd)
	RootCmd.AddCommand(memoryCmd)
}

func runMemoryAdd(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	user, _ := cmd.Flags().GetString("user")

	a := buildApp()
	defer a.close()

	if err := a.memory.Add(cmd.Context(), category, user, strings.Join(args, " "), nil); err != nil {
		exitErr("memory add", err)
	}
	fmt.Printf("stored memory for %s/%s\n", category, user)
}

func runMemoryRecall(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	user, _ := cmd.Flags().GetString("user")
	top, _ := cmd.Flags().GetInt("top")
	min, _ := cmd.Flags().GetFloat64("min")

	a := buildApp()
	defer a.close()

	results, err := a.memory.Retrieve(cmd.Context(), category, user, strings.Join(args, " "), top, min)
	if err != nil {
		exitErr("memory recall", err)
	}
	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}

func runMemoryConsolidate(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	user, _ := cmd.Flags().GetString("user")
	threshold, _ := cmd.Flags().GetInt("threshold")

	a := buildApp()
	defer a.close()

	removed, err := a.memory.Consolidate(cmd.Context(), category, user, threshold)
	if err != nil {
		exitErr("memory consolidate", err)
	}
	fmt.Printf("removed %d entries for %s/%s\n", removed, category, user)
}

func runMemoryForget(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	user, _ := cmd.Flags().GetString("user")

	a := buildApp()
	defer a.close()

	deleted, err := a.memory.Forget(cmd.Context(), category, user)
	if err != nil {
		exitErr("memory forget", err)
	}
	if !deleted {
		exitErr("memory forget", fmt.Errorf("no memory for %s/%s", category, user))
	}
	fmt.Printf("forgot all memory for %s/%s\n", category, user)
}

func runMemoryStats(cmd *cobra.Command, args []string) {
	a := buildApp()
	defer a.close()

	stats, err := a.memory.GetStats(cmd.Context())
	if err != nil {
		exitErr("memory stats", err)
	}
	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
}
