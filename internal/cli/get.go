package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve a stored value",
		Run:   runGet,
	}

	cmd.Flags().StringP("ns", "n", "", "Namespace (required)")
	cmd.Flags().StringP("key", "k", "", "Key (required)")

	cmd.MarkFlagRequired("ns")
	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")

	a := buildApp()
	defer a.close()

	var value json.RawMessage
	found, err := a.store.Get(cmd.Context(), ns, key, &value)
	if err != nil {
		exitErr("get", err)
	}
	if !found {
		exitErr("get", fmt.Errorf("not found: %s/%s", ns, key))
	}

	var pretty any
	if err := json.Unmarshal(value, &pretty); err == nil {
		b, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Println(string(value))
}
