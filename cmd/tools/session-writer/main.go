// cmd/tools/session-writer/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"franchise-portal/internal/common/config"
	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	sessionguard "franchise-portal/internal/customer/session-guard"
	"franchise-portal/internal/models"
)

func main() {
	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	logoutCmd := flag.NewFlagSet("logout", flag.ExitOnError)
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)

	// Login command flags
	id := loginCmd.String("id", "", "Customer ID (e.g., C123)")
	name := loginCmd.String("name", "", "Customer display name")
	extra := loginCmd.String("extra", "", "Additional identity fields as a JSON object")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if os.Args[1] == "help" || os.Args[1] == "-h" {
		help()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, redis, err := sessionguard.OpenStore(cfg)
	if err != nil {
		fmt.Printf("Error opening session store: %v\n", err)
		os.Exit(1)
	}
	if redis != nil {
		defer redis.Close()
	}
	guard := sessionguard.NewGuard(sessionguard.LoadConfig(cfg.Session), store, logger.NewStructured("warn", "console"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "login":
		loginCmd.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			fmt.Println("Error: id is required for login.")
			loginCmd.Usage()
			os.Exit(1)
		}
		session := &models.CustomerSession{CustomerID: *id, Name: *name}
		if *extra != "" {
			if err := json.Unmarshal([]byte(*extra), &session.Extra); err != nil {
				fmt.Printf("Error: extra must be a JSON object: %v\n", err)
				os.Exit(1)
			}
		}
		if err := guard.Establish(ctx, session); err != nil {
			fmt.Printf("Error saving session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Logged in as %s (%s)\n", session.Name, session.CustomerID)

	case "logout":
		logoutCmd.Parse(os.Args[2:])
		if err := guard.Destroy(ctx); err != nil {
			fmt.Printf("Error removing session: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Logged out.")

	case "show":
		showCmd.Parse(os.Args[2:])
		session, err := guard.Resolve(ctx)
		if errors.IsUnauthenticated(err) {
			fmt.Printf("No customer session. Login path: %s\n", guard.LoginPath())
			os.Exit(2)
		}
		if err != nil {
			fmt.Printf("Error reading session: %v\n", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(session, "", "  ")
		fmt.Println(string(out))

	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println(`
Usage: session-writer <command> [flags]

Commands:
  login   Persist a customer session (stand-in for the login page)
          -id      Customer ID (required)
          -name    Display name
          -extra   Additional identity fields as JSON
  logout  Remove the persisted session
  show    Print the persisted session

The store (file or redis) and key come from configs/config.yaml.`)
}
