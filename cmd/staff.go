package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"meeting-attendance/internal/roster"
	"meeting-attendance/internal/storage"

	"github.com/spf13/cobra"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage the staff roster",
}

var staffSearch string

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered staff",
	RunE: func(cmd *cobra.Command, args []string) error {
		staff, total, err := roster.New(provider).List(cmd.Context(), storage.StaffFilter{
			Page:     1,
			PageSize: 100,
			Search:   staffSearch,
		})
		if err != nil {
			return err
		}
		if len(staff) == 0 {
			fmt.Println("No staff found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDEPARTMENT\tREGISTERED")
		for _, s := range staff {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.FullName, s.Email, s.Department, s.CreatedAt.Format(timeLayout))
		}
		w.Flush()
		fmt.Printf("\nShowing %d of %d staff\n", len(staff), total)
		return nil
	},
}

var staffRegisterCmd = &cobra.Command{
	Use:   "register <full_name> <email> <department>",
	Short: "Register a staff member and assign a badge",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := roster.New(provider).Register(cmd.Context(), roster.Registration{
			FullName:   args[0],
			Email:      args[1],
			Department: args[2],
		})
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s <%s> with id %d\n", s.FullName, s.Email, s.ID)
		return nil
	},
}

var staffDeleteCmd = &cobra.Command{
	Use:   "delete <staff_id>",
	Short: "Delete a staff member without recorded attendance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("staff_id must be a valid integer: %w", err)
		}
		if err := roster.New(provider).Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted staff member %d\n", id)
		return nil
	},
}

var staffImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a CSV or tab separated staff list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		report, err := roster.New(provider).Import(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Printf("Rows: %d, created: %d, skipped: %d, failed: %d\n", report.Total, report.Created, report.Skipped, report.Failed)
		for _, p := range report.Problems {
			fmt.Println("  " + p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(staffCmd)
	staffCmd.AddCommand(staffListCmd, staffRegisterCmd, staffDeleteCmd, staffImportCmd)

	staffListCmd.Flags().StringVar(&staffSearch, "search", "", "filter by name, email or department")
}
