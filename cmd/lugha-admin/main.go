// ABOUTME: Admin CLI for lugha-gateway account, API key and language management
// ABOUTME: Operates directly on the gateway database, no running server required

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/lugha/lugha-gateway/internal/auth"
	"github.com/lugha/lugha-gateway/internal/config"
	"github.com/lugha/lugha-gateway/internal/store"
)

const banner = `
 _             _                          _           _
| |_   _  __ _| |__   __ _        __ _  __| |_ __ ___ (_)_ __
| | | | |/ _' | '_ \ / _' |_____ / _' |/ _' | '_ ' _ \| | '_ \
| | |_| | (_| | | | | (_| |_____| (_| | (_| | | | | | | | | | |
|_|\__,_|\__, |_| |_|\__,_|      \__,_|\__,_|_| |_| |_|_|_| |_|
         |___/
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "bootstrap":
		err = cmdBootstrap(args)
	case "users":
		err = cmdUsers(args)
	case "apikeys":
		err = cmdAPIKeys(args)
	case "languages":
		err = cmdLanguages(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: lugha-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  bootstrap --username NAME       Create the initial admin account")
	fmt.Println("  users promote <id>              Grant the admin role to a user")
	fmt.Println("  apikeys                         List configured provider API keys")
	fmt.Println("  apikeys set <provider> <key>    Set the credential for a provider")
	fmt.Println("  apikeys delete <id>             Delete an API key by ID")
	fmt.Println("  languages                       List supported languages")
	fmt.Println("  languages add <name> <code>     Add a language (optional: <region>)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  LUGHA_CONFIG      Path to the gateway config (default: ~/.config/lugha/gateway.yaml)")
	fmt.Println("  LUGHA_DB_PATH     Database path override")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  lugha-admin bootstrap --username mwalimu")
	fmt.Println("  lugha-admin apikeys set gemini AIza...")
	fmt.Println("  lugha-admin languages add Turkana tuv Kenya")
	fmt.Println()
}

// getConfigPath mirrors the gateway's config resolution.
func getConfigPath() string {
	if envPath := os.Getenv("LUGHA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "lugha", "gateway.yaml")
}

// openStore opens the gateway database from config. The caller closes it.
func openStore() (store.Store, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	dbPath := cfg.Database.Path
	if envPath := os.Getenv("LUGHA_DB_PATH"); envPath != "" {
		dbPath = envPath
	}
	if dbPath == "" {
		return nil, fmt.Errorf("no database path configured; the admin CLI needs the sqlite driver")
	}

	return store.NewSQLiteStore(dbPath)
}

// cmdBootstrap creates the first admin account. It refuses to run against a
// database that already has a user with that username.
func cmdBootstrap(args []string) error {
	var username string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--username" || arg == "-u":
			if i+1 >= len(args) {
				return fmt.Errorf("--username requires a value")
			}
			username = args[i+1]
			i++
		case strings.HasPrefix(arg, "--username="):
			username = strings.TrimPrefix(arg, "--username=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("--username flag is required")
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return fmt.Errorf("password cannot be empty")
	}

	hash, err := auth.HashPassword(string(passwordBytes))
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	user := &store.User{
		Username:          username,
		PasswordHash:      hash,
		Role:              store.RoleAdmin,
		PreferredLanguage: "eng",
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created admin user: %s (id %d)\n", user.Username, user.ID)
	fmt.Println()
	fmt.Println("  Log in through the web app with this account to manage")
	fmt.Println("  API keys and languages, or keep using lugha-admin.")
	return nil
}

func cmdUsers(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: lugha-admin users promote <id>")
	}

	switch args[0] {
	case "promote":
		if len(args) < 2 {
			return fmt.Errorf("usage: lugha-admin users promote <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id: %s", args[1])
		}
		return promoteUser(id)
	default:
		return fmt.Errorf("unknown users subcommand: %s", args[0])
	}
}

func promoteUser(id int64) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	role := store.RoleAdmin
	user, err := s.UpdateUser(context.Background(), id, store.UserUpdate{Role: &role})
	if err != nil {
		return fmt.Errorf("promoting user %d: %w", id, err)
	}

	color.Green("  ✓ %s is now an admin\n", user.Username)
	return nil
}

func cmdAPIKeys(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		return listAPIKeys()
	}

	switch args[0] {
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: lugha-admin apikeys set <provider> <key>")
		}
		return setAPIKey(args[1], args[2])
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: lugha-admin apikeys delete <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid key id: %s", args[1])
		}
		return deleteAPIKey(id)
	default:
		return fmt.Errorf("unknown apikeys subcommand: %s", args[0])
	}
}

func listAPIKeys() error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	keys, err := s.GetAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("listing API keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tKEY\tACTIVE\tUPDATED")
	for _, k := range keys {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n",
			k.ID, k.Provider, maskKey(k.KeyValue), k.IsActive,
			k.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// maskKey shows only enough of a credential to identify it.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setAPIKey upserts by provider the same way the admin HTTP endpoint does.
func setAPIKey(provider, key string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	existing, err := s.GetAPIKeyByProvider(ctx, provider)
	switch {
	case err == nil:
		active := true
		if _, err := s.UpdateAPIKey(ctx, existing.ID, store.ApiKeyUpdate{KeyValue: &key, IsActive: &active}); err != nil {
			return fmt.Errorf("updating %s key: %w", provider, err)
		}
		color.Green("  ✓ Updated %s key\n", provider)
	case errors.Is(err, store.ErrNotFound):
		apiKey := &store.ApiKey{Provider: provider, KeyValue: key, IsActive: true}
		if err := s.CreateAPIKey(ctx, apiKey); err != nil {
			return fmt.Errorf("creating %s key: %w", provider, err)
		}
		color.Green("  ✓ Created %s key (id %d)\n", provider, apiKey.ID)
	default:
		return fmt.Errorf("looking up %s key: %w", provider, err)
	}
	return nil
}

func deleteAPIKey(id int64) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteAPIKey(context.Background(), id); err != nil {
		return fmt.Errorf("deleting key %d: %w", id, err)
	}
	color.Green("  ✓ Deleted key %d\n", id)
	return nil
}

func cmdLanguages(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		return listLanguages()
	}

	switch args[0] {
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: lugha-admin languages add <name> <code> [region]")
		}
		region := ""
		if len(args) > 3 {
			region = args[3]
		}
		return addLanguage(args[1], args[2], region)
	default:
		return fmt.Errorf("unknown languages subcommand: %s", args[0])
	}
}

func listLanguages() error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	langs, err := s.GetLanguages(context.Background())
	if err != nil {
		return fmt.Errorf("listing languages: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCODE\tREGION\tACTIVE")
	for _, l := range langs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", l.ID, l.Name, l.Code, l.Region, l.IsActive)
	}
	return w.Flush()
}

func addLanguage(name, code, region string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	lang := &store.Language{Name: name, Code: code, Region: region, IsActive: true}
	if err := s.CreateLanguage(context.Background(), lang); err != nil {
		return fmt.Errorf("adding language %s: %w", name, err)
	}
	color.Green("  ✓ Added %s (%s)\n", name, code)
	return nil
}
