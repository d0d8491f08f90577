package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/credit-scorer/internal/altdata"
	"github.com/jonathan/credit-scorer/internal/credentials"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage alternative data provider credentials",
	Long: `Lists alternative data providers and manages their API keys. Keys are
stored in the OS keyring; environment variables (e.g. TRANSACTION_API_KEY)
take precedence when set.`,
	RunE: runProviders,
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <provider> <key>",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := credentials.Store(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Stored key for %s\n", args[0])
		return nil
	},
}

var deleteKeyCmd = &cobra.Command{
	Use:   "delete-key <provider>",
	Short: "Remove a provider's API key from the keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := credentials.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted key for %s\n", args[0])
		return nil
	},
}

func init() {
	providersCmd.AddCommand(setKeyCmd)
	providersCmd.AddCommand(deleteKeyCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProviders(_ *cobra.Command, _ []string) error {
	categories := []string{
		altdata.CategoryDigitalFootprint,
		altdata.CategoryTransaction,
		altdata.CategoryUtilityPayment,
		altdata.CategoryEducationEmployment,
	}
	for _, category := range categories {
		status := "no key (simulated data)"
		if credentials.Resolve(category) != "" {
			status = "key configured"
		}
		fmt.Printf("%-24s %s (env %s)\n", category, status, credentials.EnvVar(category))
	}
	return nil
}
