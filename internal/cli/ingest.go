package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index documents into the knowledge base",
		Long:  "Chunk, embed, and index every matching file under dir. Defaults to the configured docs root.",
		Run:   runIngest,
	}

	cmd.Flags().StringP("glob", "g", "*.md", "Filename pattern to ingest")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	glob, _ := cmd.Flags().GetString("glob")

	a := buildApp()
	defer a.close()

	dir := a.cfg.DocsRoot
	if len(args) > 0 {
		dir = args[0]
	}

	added, err := a.rag.IngestDirectory(cmd.Context(), dir, glob)
	if err != nil {
		exitErr("ingest", err)
	}
	fmt.Printf("indexed %d chunks (%d total)\n", added, a.rag.Len())
}
