package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/ClawSentry/ClawSentry/internal/cli.version=1.2.3"
	version = "1.4.0"
	logo    = "\n" +
		"   ____ _                ____             _\n" +
		"  / ___| | __ ___      _/ ___|  ___ _ __ | |_ _ __ _   _\n" +
		" | |   | |/ _` \\ \\ /\\ / \\___ \\ / _ \\ '_ \\| __| '__| | | |\n" +
		" | |___| | (_| |\\ V  V / ___) |  __/ | | | |_| |  | |_| |\n" +
		"  \\____|_|\\__,_| \\_/\\_/ |____/ \\___|_| |_|\\__|_|   \\__, |\n" +
		"                                                   |___/\n"
)

var workspaceFlag string

var rootCmd = &cobra.Command{
	Use:   "clawsentry",
	Short: "ClawSentry - Skill security auditor",
	Long:  color.CyanString(logo) + "\nSecurity auditing for agent skill workspaces: scan, sign, verify, egress.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// exitError carries a process exit code through cobra. An empty message
// means the command already printed its report and only the code matters.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func exitWithCode(code int) error { return &exitError{code: code} }

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if err != nil {
		return 1
	}
	return 0
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && err.Error() != "" {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace path (default: auto-detect)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(urlsCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(historyCmd)
}
