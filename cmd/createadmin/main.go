// Command createadmin creates the administrator account, or promotes and
// resets the password of an existing account with the same email.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/rudigital/backend/internal/config"
	"github.com/rudigital/backend/internal/database"
	"github.com/rudigital/backend/internal/services"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load")
	matricula := flag.String("matricula", "ADMIN001", "registration number")
	nome := flag.String("nome", "Administrador RU", "display name")
	email := flag.String("email", "", "login email (required)")
	senha := flag.String("senha", os.Getenv("ADMIN_PASSWORD"), "password, defaults to $ADMIN_PASSWORD")
	migrate := flag.Bool("migrate", false, "apply the schema before seeding")
	flag.Parse()

	config.Init(*envFile)
	authCfg := config.LoadAuthConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, database.GetConfig())
	if err != nil {
		log.Fatalf("[DB] %v", err)
	}
	defer db.Close()

	if *migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("[DB] Migration failed: %v", err)
		}
	}

	users := services.NewUserService(db, authCfg.BcryptCost)
	id, err := users.SeedAdmin(ctx, services.AdminSeed{
		Matricula: *matricula,
		Nome:      *nome,
		Email:     *email,
		Senha:     *senha,
	})
	if err != nil {
		log.Fatalf("[ADMIN] %v", err)
	}

	log.Printf("[ADMIN] Done: %s (id %d)", *email, id)
}
