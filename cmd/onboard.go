package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vatsalai/vatsal/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	path := resolvedConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(path)
		if loadErr != nil {
			return fmt.Errorf("existing config not refreshed: %w", loadErr)
		}
		if err := config.Save(existing, path); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", path)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, path); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", path)
	}

	fmt.Printf("\n%s vatsal is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Println("  1. Start the bridge: vatsal serve")
	fmt.Println("  2. Send a command:   vatsal send ping")
	fmt.Printf("  3. Optional: set %s and slack.channel in %s for Slack notifications\n", config.EnvSlackToken, path)
	return nil
}
