package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/storage"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var meetingCmd = &cobra.Command{
	Use:   "meeting",
	Short: "Manage meetings",
}

var (
	meetingStatus string
	meetingSearch string
	meetingPage   int
)

var meetingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meetings with attendance counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}
		meetings, total, err := engine.ListMeetings(cmd.Context(), storage.MeetingFilter{
			Page:     meetingPage,
			PageSize: 50,
			Status:   storage.MeetingStatus(meetingStatus),
			Search:   meetingSearch,
		})
		if err != nil {
			return err
		}
		if len(meetings) == 0 {
			fmt.Println("No meetings found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tINVITED\tJOINED\tCONFIRMED\tSCANNED\tCREATED AT")
		for _, m := range meetings {
			status := "active"
			if m.Closed() {
				status = "closed"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				m.ID, m.Title, status, m.Invited, m.Joined, m.Confirmed, m.Scanned,
				m.CreatedAt.Format(timeLayout),
			)
		}
		w.Flush()
		fmt.Printf("\nShowing %d of %d meetings\n", len(meetings), total)
		return nil
	},
}

var meetingCreateCmd = &cobra.Command{
	Use:   "create <title> <join_url>",
	Short: "Create an active meeting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}
		m, err := engine.CreateMeeting(cmd.Context(), attendance.MeetingInput{Title: args[0], JoinURL: args[1]})
		if err != nil {
			return err
		}
		fmt.Printf("Created meeting %d: %s\n", m.ID, m.Title)
		return nil
	},
}

var meetingCloseCmd = &cobra.Command{
	Use:   "close <meeting_id>",
	Short: "Close a meeting and send confirmation requests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("meeting_id must be a valid integer: %w", err)
		}
		engine, _, err := newEngine()
		if err != nil {
			return err
		}
		report, err := engine.CloseMeeting(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("Closed meeting %d at %s\n", report.MeetingID, report.ClosedAt.Format(timeLayout))
		fmt.Printf("Confirmation requests: %d minted, %d sent, %d failed\n",
			report.ConfirmationCount, report.Notifications.Sent, report.Notifications.Failed)
		for _, r := range report.Notifications.Results {
			if !r.Success {
				fmt.Printf("  %s: %s\n", r.Recipient, r.Error)
			}
		}
		return nil
	},
}

var meetingInviteCmd = &cobra.Command{
	Use:   "invite <meeting_id> <email>...",
	Short: "Generate and mail virtual invites",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("meeting_id must be a valid integer: %w", err)
		}
		engine, _, err := newEngine()
		if err != nil {
			return err
		}
		report, err := engine.SendInvites(cmd.Context(), id, args[1:])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tGENERATED\tSENT\tERROR")
		for _, r := range report.Results {
			fmt.Fprintf(w, "%s\t%t\t%t\t%s\n", r.Email, r.Generated, r.Sent, r.Error)
		}
		w.Flush()
		fmt.Printf("\nSent %d of %d invites\n", report.Sent, report.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(meetingCmd)
	meetingCmd.AddCommand(meetingListCmd, meetingCreateCmd, meetingCloseCmd, meetingInviteCmd)

	meetingListCmd.Flags().StringVar(&meetingStatus, "status", "", "filter by status: active or closed")
	meetingListCmd.Flags().StringVar(&meetingSearch, "search", "", "filter by title")
	meetingListCmd.Flags().IntVar(&meetingPage, "page", 1, "page number")
}
