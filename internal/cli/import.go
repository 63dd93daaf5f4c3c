package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sidekick/internal/kvstore"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import records from a JSON export",
		Long:  "Import records from a file or stdin, replacing existing values.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	var records []kvstore.Record
	if err := json.Unmarshal(data, &records); err != nil {
		exitErr("parse input", err)
	}

	a := buildApp()
	defer a.close()

	n, err := a.store.Import(cmd.Context(), records)
	if err != nil {
		exitErr("import", err)
	}
	fmt.Printf("imported %d records\n", n)
}
