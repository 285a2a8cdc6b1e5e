// Command seed creates the schema, the first super_admin account and
// optionally a sample restaurant.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/config"
	"github.com/arunika0/menu/internal/database"
	"github.com/arunika0/menu/internal/logger"
	"github.com/arunika0/menu/internal/repository"
	"github.com/arunika0/menu/internal/seed"
)

func main() {
	var opts seed.Options
	flag.StringVar(&opts.AdminUsername, "admin-user", "admin", "username of the super_admin account")
	flag.StringVar(&opts.AdminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the super_admin account")
	flag.BoolVar(&opts.Sample, "sample", true, "insert a sample restaurant with menu items")
	flag.StringVar(&opts.SampleAdminPassword, "sample-admin-password", "", "also create a restaurant_admin for the sample restaurant")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.ApplySchema(ctx, db, cfg.DB.Driver); err != nil {
		log.Fatal("apply schema", zap.Error(err))
	}

	repos := seed.Repos{
		Users:       repository.NewUserRepo(db),
		Restaurants: repository.NewRestaurantRepo(db),
		Categories:  repository.NewCategoryRepo(db),
		Menu:        repository.NewMenuRepo(db),
	}
	if err := seed.Run(ctx, repos, auth.NewHasher(cfg.Auth.BcryptCost), opts, log); err != nil {
		log.Fatal("seed", zap.Error(err))
	}
	log.Info("seed complete")
}
