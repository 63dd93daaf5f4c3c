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
		Use:   "route [text]",
		Short: "Route a message through the assistant",
		Long:  "Classify a message, dispatch it to its persona handler, and print the routed envelope and result. Text can be a positional arg or piped via stdin.",
		Run:   runRoute,
	}

	cmd.Flags().StringP("user", "u", "local", "User id")
	cmd.Flags().StringP("session", "s", "default", "Session id")

	RootCmd.AddCommand(cmd)
}

func runRoute(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	session, _ := cmd.Flags().GetString("session")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}
	if strings.TrimSpace(text) == "" {
		exitErr("route", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	a := buildApp()
	defer a.close()

	out := a.router.Route(cmd.Context(), user, session, strings.TrimSpace(text))
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
