package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ns [namespace]",
		Short: "List keys in a namespace",
		Args:  cobra.ExactArgs(1),
		Run:   runNs,
	}

	RootCmd.AddCommand(cmd)
}

func runNs(cmd *cobra.Command, args []string) {
	a := buildApp()
	defer a.close()

	keys, err := a.store.Keys(cmd.Context(), args[0])
	if err != nil {
		exitErr("ns", err)
	}
	if keys == nil {
		keys = []string{}
	}
	b, _ := json.Marshal(keys)
	fmt.Println(string(b))
}
