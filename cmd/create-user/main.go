package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/config"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository/postgres"
)

func main() {
	admin := flag.Bool("admin", false, "create an admin user")
	flag.Parse()

	if flag.NArg() < 3 {
		fmt.Println("Usage: go run cmd/create-user/main.go [--admin] <email> <full-name> <api-token>")
		fmt.Println("Example: go run cmd/create-user/main.go \"ops@anvika.shop\" \"Store Ops\" \"ops-token-12345\" --admin")
		os.Exit(1)
	}

	email := flag.Arg(0)
	fullName := flag.Arg(1)
	apiToken := flag.Arg(2)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	tokenHash, err := bcrypt.GenerateFromPassword([]byte(apiToken), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API token: %v\n", err)
		os.Exit(1)
	}

	role := domain.RoleUser
	if *admin {
		role = domain.RoleAdmin
	}

	store := postgres.NewStore(db, logger)
	user := &domain.User{
		Email:        email,
		FullName:     fullName,
		Role:         role,
		APITokenHash: string(tokenHash),
		IsActive:     true,
	}

	if err := store.Repos().Users.Create(context.Background(), user); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User created successfully!\n\n")
	fmt.Printf("User ID: %s\n", user.ID.String())
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Role: %s\n", user.Role)
	fmt.Printf("\nUse this API token in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiToken)
}
