package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/mikeboe/uniq-chat/pkg/auth"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with your roll number",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			line := liner.NewLiner()
			line.SetCtrlCAborts(true)
			defer line.Close()

			return promptLogin(cmd.Context(), line, a.gate)
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			newApp().gate.Logout()
			fmt.Println(successStyle.Render("Logged out."))
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in student",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := newApp().gate.User()
			if !ok {
				return errors.New("not logged in")
			}
			printStudent(user)
			return nil
		},
	}
}

// promptLogin asks for credentials until login succeeds or the prompt is
// aborted.
func promptLogin(ctx context.Context, line *liner.State, gate *auth.Gate) error {
	for {
		rollNo, err := line.Prompt("Roll number: ")
		if err != nil {
			return fmt.Errorf("login aborted: %w", err)
		}
		password, err := line.PasswordPrompt("Password: ")
		if err != nil {
			return fmt.Errorf("login aborted: %w", err)
		}

		rollNo = strings.TrimSpace(rollNo)
		if rollNo == "" || password == "" {
			fmt.Println(errorStyle.Render("Roll number and password are required."))
			continue
		}

		if err := gate.Login(ctx, rollNo, password); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			continue
		}

		user, _ := gate.User()
		fmt.Println(successStyle.Render("Welcome, " + user.Name + "!"))
		return nil
	}
}

func printStudent(s auth.Student) {
	fmt.Println(highlightStyle.Render(s.Name))
	fmt.Printf("  %s %s\n", dimStyle.Render("Roll no:"), s.RollNo)
	fmt.Printf("  %s %s\n", dimStyle.Render("Department:"), s.Department)
	fmt.Printf("  %s %s\n", dimStyle.Render("Branch:"), s.Branch)
	fmt.Printf("  %s %d\n", dimStyle.Render("Semester:"), s.Semester)
}
