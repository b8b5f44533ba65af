package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/manifest"
	"github.com/ClawSentry/ClawSentry/internal/workspace"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("ClawSentry Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace security status",
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("ClawSentry Status")
		fmt.Printf("Version: %s\n", version)

		configPath, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(configPath); statErr == nil {
				fmt.Println("Config:    ✓ Found (" + configPath + ")")
			} else {
				fmt.Println("Config:    ✗ Not found (defaults in effect)")
			}
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		fmt.Println("Workspace: " + a.ws)

		skills, err := workspace.FindSkills(a.ws)
		if err != nil {
			return err
		}
		fmt.Printf("Skills:    %d installed\n", len(skills))

		eng := a.manifestEngine()
		if !eng.Store().Exists() {
			fmt.Println("Manifest:  ✗ Not initialized (run 'clawsentry sign')")
			return nil
		}
		results, err := eng.Verify("")
		if err != nil {
			return err
		}
		verified, tampered, unsigned := 0, 0, 0
		for _, r := range results {
			switch r.State {
			case manifest.StateVerified:
				verified++
			case manifest.StateUnsigned:
				unsigned++
			default:
				tampered++
			}
		}
		switch {
		case tampered > 0:
			fmt.Printf("Manifest:  ✗ %d skill(s) tampered or missing\n", tampered)
		case unsigned > 0:
			fmt.Printf("Manifest:  ! %d unsigned skill(s), %d verified\n", unsigned, verified)
		default:
			fmt.Printf("Manifest:  ✓ All %d skill(s) verified\n", verified)
		}

		chainLen, chainErr := a.auditLog.VerifyChain()
		if chainErr != nil {
			fmt.Printf("Audit:     ✗ Chain broken after %d event(s)\n", chainLen)
		} else {
			fmt.Printf("Audit:     ✓ %d event(s), chain intact\n", chainLen)
		}

		switch {
		case tampered > 0:
			return exitWithCode(2)
		case unsigned > 0:
			return exitWithCode(1)
		default:
			return nil
		}
	},
}
