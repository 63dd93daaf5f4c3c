package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [value]",
		Short: "Store a value",
		Long:  "Store a JSON value under a namespaced key. Value can be a positional arg or piped via stdin; non-JSON input is stored as a string.",
		Run:   runPut,
	}

	cmd.Flags().StringP("ns", "n", "", "Namespace (required)")
	cmd.Flags().StringP("key", "k", "", "Key (required)")
	cmd.Flags().Bool("append", false, "Append to the list stored under the key")

	cmd.MarkFlagRequired("ns")
	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")
	appendList, _ := cmd.Flags().GetBool("append")

	var raw string
	if len(args) > 0 {
		raw = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			raw = string(b)
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		exitErr("put", fmt.Errorf("value is required (positional arg or stdin)"))
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	a := buildApp()
	defer a.close()

	if appendList {
		if err := a.store.AppendToList(cmd.Context(), ns, key, value); err != nil {
			exitErr("put", err)
		}
	} else if err := a.store.Set(cmd.Context(), ns, key, value); err != nil {
		exitErr("put", err)
	}
	fmt.Printf("stored %s/%s\n", ns, key)
}
