package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sidekick/internal/trace"
)

func init() {
	toolCmd := &cobra.Command{
		Use:   "tool",
		Short: "Work with registered tools",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered tool names",
		Run:   runToolList,
	}

	callCmd := &cobra.Command{
		Use:   "call [name]",
		Short: "Invoke a tool through the guardrailed registry",
		Args:  cobra.ExactArgs(1),
		Run:   runToolCall,
	}
	callCmd.Flags().String("args", "{}", "Tool arguments as JSON")
	callCmd.Flags().StringP("user", "u", "local", "User id")
	callCmd.Flags().StringP("session", "s", "default", "Session id")

	toolCmd.AddCommand(listCmd, callCmd)
	RootCmd.AddCommand(toolCmd)
}

func runToolList(cmd *cobra.Command, args []string) {
	a := buildApp()
	defer a.close()

	b, _ := json.Marshal(a.registry.Names())
	fmt.Println(string(b))
}

func runToolCall(cmd *cobra.Command, args []string) {
	rawArgs, _ := cmd.Flags().GetString("args")
	user, _ := cmd.Flags().GetString("user")
	session, _ := cmd.Flags().GetString("session")

	var arguments map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &arguments); err != nil {
		exitErr("parse --args", err)
	}

	a := buildApp()
	defer a.close()

	result, err := a.registry.Call(args[0], user, session, trace.NewID(), arguments)
	if err != nil {
		exitErr("tool call", err)
	}
	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}
