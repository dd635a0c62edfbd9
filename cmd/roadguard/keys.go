package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roadsafety/roadguard/adapters/idgen"
	"github.com/roadsafety/roadguard/adapters/sqlite"
	"github.com/roadsafety/roadguard/config"
	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/ports"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage standalone API keys",
	Long: `Manage standalone API keys in the api_keys table.

These keys exist independently of user accounts, for service
integrations and operator use.

Examples:
  roadguard keys list
  roadguard keys create --tier=professional --name="Partner feed"
  roadguard keys revoke rsk_abc123`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE:  runKeysList,
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new API key",
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

var (
	keyTier string
	keyName string
)

func init() {
	rootCmd.AddCommand(keysCmd)

	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysRevokeCmd)

	keysCreateCmd.Flags().StringVar(&keyTier, "tier", "free", "tier: free, developer, professional, unlimited")
	keysCreateCmd.Flags().StringVar(&keyName, "name", "", "key name (optional)")
}

func runKeysList(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := sqlite.NewLegacyKeyStore(db).List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found.")
		fmt.Println()
		fmt.Println("Create a key with: roadguard keys create --tier=<tier>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTIER\tNAME\tSTATUS\tCREATED")
	fmt.Fprintln(w, "---\t----\t----\t------\t-------")

	for _, k := range keys {
		status := "active"
		if !k.Active {
			status = "revoked"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			k.APIKey, k.Tier, k.Name, status, k.CreatedAt.Format("2006-01-02"))
	}

	w.Flush()
	return nil
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	tier := identity.Tier(keyTier)
	if !tier.Valid() {
		return fmt.Errorf("unknown tier %q", keyTier)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	k := ports.LegacyKey{
		APIKey:    idgen.NewAPIKey(),
		Tier:      tier,
		Name:      keyName,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := sqlite.NewLegacyKeyStore(db).Create(context.Background(), k); err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}

	fmt.Println("API key created:")
	fmt.Printf("  Key:  %s\n", k.APIKey)
	fmt.Printf("  Tier: %s\n", k.Tier)
	if k.Name != "" {
		fmt.Printf("  Name: %s\n", k.Name)
	}
	return nil
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.NewLegacyKeyStore(db).Deactivate(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	fmt.Printf("Key %s revoked.\n", args[0])
	fmt.Println("Note: resolver caches may serve the key for up to 5 more minutes.")
	return nil
}

func openDatabase() (*sqlite.DB, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
