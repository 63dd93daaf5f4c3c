package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sidekick/internal/llm"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the knowledge base",
		Long:  "Retrieve the top passages for the question and generate a grounded answer with citations. Without an API key the answer degrades to a templated reply.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}

	cmd.Flags().IntP("top", "t", 3, "Passages to ground on")

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	top, _ := cmd.Flags().GetInt("top")

	a := buildApp()
	defer a.close()

	var gen llm.Generator
	if a.cfg.Generation.APIKey() != "" {
		gen = llm.NewClient(a.cfg.Generation)
	}

	out := a.rag.Answer(cmd.Context(), strings.Join(args, " "), gen, top)
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
