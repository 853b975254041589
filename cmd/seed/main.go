package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/xelth-com/cotaqc/internal/config"
	"github.com/xelth-com/cotaqc/internal/database"
	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/repository"
	"github.com/xelth-com/cotaqc/internal/utils"
)

func main() {
	managerEmail := flag.String("manager", "", "manager email (e.g. ana@fabrica.com)")
	managerPassword := flag.String("password", "", "manager password")
	managerName := flag.String("name", "", "manager display name")
	pins := flag.String("pins", "", "comma separated operator PINs to create")
	flag.Parse()

	fmt.Println("🌱 cotaqc account seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	repo := repository.New(db.DB)
	ctx := context.Background()

	if *managerEmail != "" {
		if *managerPassword == "" {
			log.Fatal("❌ -password is required with -manager")
		}
		email := utils.ManagerEmail(*managerEmail, cfg.Auth.ManagerDomain)
		if err := save(ctx, repo, email, *managerPassword, *managerName, models.RoleManager); err != nil {
			log.Fatalf("❌ Failed to save manager %s: %v", email, err)
		}
		fmt.Printf("✅ Manager %s\n", email)
	}

	if *pins != "" {
		if cfg.Auth.OperatorPassword == "" {
			log.Fatal("❌ OPERATOR_PASSWORD must be set to create operator accounts")
		}
		for _, pin := range strings.Split(*pins, ",") {
			pin = strings.TrimSpace(pin)
			if !utils.ValidPIN(pin) {
				log.Printf("⚠️  Skipping %q: PIN must be 4 digits", pin)
				continue
			}
			email := utils.OperatorEmail(pin, cfg.Auth.OperatorDomain)
			if err := save(ctx, repo, email, cfg.Auth.OperatorPassword, "Operador "+pin, models.RoleOperator); err != nil {
				log.Fatalf("❌ Failed to save operator %s: %v", pin, err)
			}
			fmt.Printf("✅ Operator PIN %s (%s)\n", pin, email)
		}
	}

	if *managerEmail == "" && *pins == "" {
		flag.Usage()
	}
}

func save(ctx context.Context, repo *repository.Repository, email, password, name, role string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	return repo.SaveAccount(ctx, &models.UserAuth{
		Email:    email,
		Password: hash,
		Name:     name,
		Role:     role,
		IsActive: true,
	})
}
