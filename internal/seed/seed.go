// Package seed populates an empty database with an initial super_admin and
// an optional sample restaurant.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
)

// Options controls what Run creates.
type Options struct {
	AdminUsername string
	AdminPassword string
	// Sample adds a demo restaurant with categories and menu items when no
	// restaurant exists yet.
	Sample bool
	// SampleAdminPassword, when set, also creates "<restaurant>-admin" bound
	// to the sample restaurant.
	SampleAdminPassword string
}

// Repos are the repositories Run writes through.
type Repos struct {
	Users       *repository.UserRepo
	Restaurants *repository.RestaurantRepo
	Categories  *repository.CategoryRepo
	Menu        *repository.MenuRepo
}

type sampleItem struct {
	name        string
	price       float64
	description string
	image       string
	category    string
}

var sampleMenu = []sampleItem{
	{"Buttermilk Pancakes", 15.99, "Delicious pancakes with syrup and fresh strawberries.", "https://via.placeholder.com/150", "breakfast"},
	{"Godzilla Milkshake", 6.99, "A huge milkshake topped with donuts and whipped cream.", "https://via.placeholder.com/150", "shakes"},
}

// Run is idempotent: existing users and restaurants are left alone.
func Run(ctx context.Context, r Repos, hasher auth.Hasher, opts Options, log *zap.Logger) error {
	if opts.AdminUsername == "" || opts.AdminPassword == "" {
		return errors.New("admin username and password are required")
	}
	if err := ensureUser(ctx, r.Users, hasher, model.User{Username: opts.AdminUsername, Role: model.RoleSuperAdmin}, opts.AdminPassword, log); err != nil {
		return err
	}
	if !opts.Sample {
		return nil
	}

	existing, err := r.Restaurants.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("list restaurants: %w", err)
	}
	if len(existing) > 0 {
		log.Info("restaurants present, skipping sample data", zap.Int("count", len(existing)))
		return nil
	}

	address := "1 Sample Street"
	rest := model.Restaurant{Name: "Sample Diner", Address: &address}
	if err := r.Restaurants.Create(ctx, &rest); err != nil {
		return fmt.Errorf("create sample restaurant: %w", err)
	}
	log.Info("created restaurant", zap.Uint64("id", rest.ID), zap.String("name", rest.Name))

	categoryIDs := map[string]uint64{}
	for _, it := range sampleMenu {
		if _, ok := categoryIDs[it.category]; ok {
			continue
		}
		cat := model.Category{Name: it.category, RestaurantID: rest.ID}
		if err := r.Categories.Create(ctx, &cat); err != nil {
			return fmt.Errorf("create category %q: %w", it.category, err)
		}
		categoryIDs[it.category] = cat.ID
	}

	for _, it := range sampleMenu {
		desc, img, cid := it.description, it.image, categoryIDs[it.category]
		item := model.MenuItem{
			Name:         it.name,
			Price:        it.price,
			Description:  &desc,
			Image:        &img,
			CategoryID:   &cid,
			RestaurantID: rest.ID,
		}
		if err := r.Menu.Create(ctx, &item); err != nil {
			return fmt.Errorf("create menu item %q: %w", it.name, err)
		}
		log.Info("inserted menu item", zap.Uint64("id", item.ID), zap.String("name", item.Name))
	}

	if opts.SampleAdminPassword != "" {
		rid := rest.ID
		u := model.User{Username: "sample-diner-admin", Role: model.RoleRestaurantAdmin, RestaurantID: &rid}
		if err := ensureUser(ctx, r.Users, hasher, u, opts.SampleAdminPassword, log); err != nil {
			return err
		}
	}
	return nil
}

func ensureUser(ctx context.Context, users *repository.UserRepo, hasher auth.Hasher, u model.User, password string, log *zap.Logger) error {
	if _, err := users.GetByUsername(ctx, u.Username); err == nil {
		log.Info("user exists", zap.String("username", u.Username))
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup user %q: %w", u.Username, err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	id, err := users.Create(ctx, u)
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	log.Info("created user", zap.Uint64("id", id), zap.String("username", u.Username), zap.String("role", string(u.Role)))
	return nil
}
