package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the classifier API key in the OS keychain",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the classifier API key",
	Long:  "Reads the API key from stdin and stores it in the OS keychain under classifier.keyring_account.",
	RunE:  runSetKey,
}

var deleteKeyCmd = &cobra.Command{
	Use:   "delete-key",
	Short: "Remove the stored classifier API key",
	RunE:  runDeleteKey,
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(setKeyCmd, deleteKeyCmd)
}

func runSetKey(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stderr, "API key: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return fmt.Errorf("read API key: %w", err)
	}
	if err := secrets.SetAPIKey(cfg.Classifier.KeyringAccount, line); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}
	fmt.Printf("API key stored in keychain (service %q, account %q)\n", secrets.KeyringService, cfg.Classifier.KeyringAccount)
	return nil
}

func runDeleteKey(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if err := secrets.DeleteAPIKey(cfg.Classifier.KeyringAccount); err != nil {
		return fmt.Errorf("delete API key: %w", err)
	}
	fmt.Println("API key removed from keychain")
	return nil
}
