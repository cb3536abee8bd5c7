package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"meeting-attendance/internal/routes"
	"meeting-attendance/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage HR and scanner accounts",
}

var (
	userRole     string
	userPassword string
)

var userCreateCmd = &cobra.Command{
	Use:   "create <email> <name>",
	Short: "Create an account. The password is read from stdin unless --password is given.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := storage.Role(userRole)
		if role != storage.RoleHR && role != storage.RoleScanner {
			return fmt.Errorf("invalid role %q: must be %s or %s", userRole, storage.RoleHR, storage.RoleScanner)
		}

		password := userPassword
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if len(password) < routes.MinPasswordLength {
			return fmt.Errorf("password must be at least %d characters", routes.MinPasswordLength)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := &storage.User{
			Name:         args[1],
			Email:        args[0],
			Role:         role,
			PasswordHash: string(hash),
			Active:       true,
			CreatedAt:    time.Now().UTC(),
		}
		if err := provider.CreateUser(cmd.Context(), user); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("user %s already exists", user.Email)
			}
			return err
		}
		fmt.Printf("Created %s account %s with id %d\n", user.Role, user.Email, user.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their roles and status",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := provider.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}

		rbac, err := LoadRBAC(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tSTATUS\tROLES")
		for _, u := range users {
			status := "Inactive"
			if u.Active {
				status = "Active"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, status, strings.Join(rbac.Roles(string(u.Role)), ", "))
		}
		w.Flush()
		fmt.Printf("\nTotal users: %d\n", len(users))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userListCmd)

	userCreateCmd.Flags().StringVar(&userRole, "role", string(storage.RoleHR), "account role: hr or scanner")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "account password")
}
