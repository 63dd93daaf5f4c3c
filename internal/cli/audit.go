package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and annotate the audit trail",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audit events, newest first",
		Run:   runAuditList,
	}
	listCmd.Flags().IntP("limit", "l", 20, "Maximum events (0 for all)")

	overrideCmd := &cobra.Command{
		Use:   "override",
		Short: "Mark an audit event as overridden with a note",
		Run:   runAuditOverride,
	}
	overrideCmd.Flags().IntP("id", "i", 0, "Event id (required)")
	overrideCmd.Flags().String("note", "", "Override note (required)")
	overrideCmd.Flags().String("actor", "manual", "Who is overriding")
	overrideCmd.MarkFlagRequired("id")
	overrideCmd.MarkFlagRequired("note")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full audit trail as JSON",
		Run:   runAuditExport,
	}

	auditCmd.AddCommand(listCmd, overrideCmd, exportCmd)
	RootCmd.AddCommand(auditCmd)
}

func runAuditList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	a := buildApp()
	defer a.close()

	b, _ := json.MarshalIndent(a.auditLog.List(limit), "", "  ")
	fmt.Println(string(b))
}

func runAuditOverride(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetInt("id")
	note, _ := cmd.Flags().GetString("note")
	actor, _ := cmd.Flags().GetString("actor")

	a := buildApp()
	defer a.close()

	if !a.auditLog.Override(id, note, actor) {
		exitErr("audit override", fmt.Errorf("no event with id %d", id))
	}
	fmt.Printf("event %d overridden\n", id)
}

func runAuditExport(cmd *cobra.Command, args []string) {
	a := buildApp()
	defer a.close()

	b, _ := json.MarshalIndent(a.auditLog.Export(), "", "  ")
	fmt.Println(string(b))
}
