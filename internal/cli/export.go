package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored records as JSON",
		Long:  "Export stored records as a JSON array. Filter by namespace with -n.",
		Run:   runExport,
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")

	a := buildApp()
	defer a.close()

	records, err := a.store.ExportAll(cmd.Context(), ns)
	if err != nil {
		exitErr("export", err)
	}
	b, _ := json.MarshalIndent(records, "", "  ")
	fmt.Println(string(b))
}
