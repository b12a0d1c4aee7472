package main

import (
	"context"
	"flag"
	"log"

	"optic-backoffice/internal/core"
	"optic-backoffice/internal/db"

	"github.com/joho/godotenv"
)

// Bootstraps the first admin user so the API has someone to log in as.
func main() {
	_ = godotenv.Load()

	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password (min 8 chars)")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	users := core.NewUserService(pool)
	u, err := users.CreateUser(ctx, *username, *email, *password, "admin")
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("created admin user %s (id %d)", u.Username, u.ID)
}
