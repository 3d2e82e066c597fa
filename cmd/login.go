package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/leshchenko1979/telegram-mcp-go/internal/config"
)

// loginCmd is the one-shot interactive credential-setup flow spec.md §1
// marks out of scope for the core and only specifies the interface of
// (§6's PlatformClient credentials). It exists here purely as operator
// convenience: it collects the platform application identity and writes
// the non-secret half to config.json5, printing the secret half as
// shell-exportable env vars since PlatformConfig.APIHash/PhoneNumber are
// never persisted to disk (config.go's json:"-" tags).
func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Interactively configure platform API credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin()
		},
	}
}

func runLogin() error {
	var apiID, apiHash, phoneNumber, sessionName string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("API ID").Value(&apiID).Validate(func(s string) error {
				if _, err := strconv.Atoi(s); err != nil {
					return fmt.Errorf("must be numeric")
				}
				return nil
			}),
			huh.NewInput().Title("API Hash").Value(&apiHash).EchoMode(huh.EchoModePassword),
			huh.NewInput().Title("Phone number").Value(&phoneNumber),
			huh.NewInput().Title("Session name").Value(&sessionName).Placeholder("mcp_telegram"),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if sessionName == "" {
		sessionName = "mcp_telegram"
	}

	path := resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	id, _ := strconv.Atoi(apiID)
	cfg.Platform.APIID = id
	cfg.Platform.SessionName = sessionName

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Printf("Saved non-secret config to %s.\n", path)
	fmt.Println("Export these before running `serve`:")
	fmt.Printf("  export API_HASH=%q\n", apiHash)
	fmt.Printf("  export PHONE_NUMBER=%q\n", phoneNumber)
	return nil
}
