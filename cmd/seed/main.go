// Command seed creates a demo administrator and a handful of regular users.
// Existing accounts are left alone, so it is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/utilities"
)

type demoUser struct {
	email, username, fullName string
}

var demoUsers = []demoUser{
	{"john.doe@example.com", "johndoe", "John Doe"},
	{"jane.smith@example.com", "janesmith", "Jane Smith"},
	{"bob.johnson@example.com", "bobjohnson", "Bob Johnson"},
	{"alice.williams@example.com", "alicewilliams", "Alice Williams"},
}

func main() {
	_ = godotenv.Load()

	adminEmail := flag.String("admin-email", "admin@example.com", "admin email")
	adminUsername := flag.String("admin-username", "admin", "admin username")
	adminPassword := flag.String("admin-password", "admin123", "admin password")
	userPassword := flag.String("user-password", "user123", "password for every demo user")
	flag.Parse()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	dbCfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(dbCfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	db := sqlx.NewDb(sqlDB, dbCfg.Driver)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users := userrepo.NewUserRepo(db)
	if err := users.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	hasher := auth.BcryptHasher{Cost: config.BcryptCost}

	changed, err := user.NewUserService(users, hasher, sugar).EnsureAdmin(ctx, user.AdminAccount{
		Email:    *adminEmail,
		Username: *adminUsername,
		Password: *adminPassword,
		FullName: "Administrator",
	})
	if err != nil {
		sugar.Fatalf("seed admin: %v", err)
	}
	sugar.Infow("admin checked", "username", *adminUsername, "created", changed)

	// registration never issues tokens, so no codec is needed
	registrar, err := auth.NewService(users, nil, hasher, sugar, auth.Options{})
	if err != nil {
		sugar.Fatalf("auth service: %v", err)
	}
	created, skipped := 0, 0
	for _, d := range demoUsers {
		fullName := d.fullName
		_, err := registrar.Register(ctx, auth.RegisterRequest{
			Email:    d.email,
			Username: d.username,
			Password: *userPassword,
			FullName: &fullName,
		})
		switch {
		case err == nil:
			created++
			sugar.Infow("created user", "username", d.username, "email", d.email)
		case errors.Is(err, apperror.ErrAlreadyExists):
			skipped++
			sugar.Infow("user already exists", "username", d.username)
		default:
			sugar.Fatalf("seed %s: %v", d.username, err)
		}
	}
	sugar.Infow("seeding done", "created", created, "skipped", skipped)
}
