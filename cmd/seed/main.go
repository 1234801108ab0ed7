package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nmbt2910/iheartev/internal/config"
	"github.com/nmbt2910/iheartev/internal/db"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/repository"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Listing{},
		&model.Order{},
		&model.Review{},
		&model.Favorite{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	canSeed, err := shouldSeed(gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("listings already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	users := repository.NewUserRepository(gdb)
	admin := &model.User{UID: uuid.NewString(), FullName: "Site Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	seller := &model.User{UID: uuid.NewString(), FullName: "Thanh Nguyen", Email: "seller@example.com", Role: model.RoleUser}
	buyer := &model.User{UID: uuid.NewString(), FullName: "Minh Tran", Email: "buyer@example.com", Role: model.RoleUser}
	for _, u := range []*model.User{admin, seller, buyer} {
		if err := users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}
	}

	mileage := 42000
	capacity := 60
	listings := repository.NewListingRepository(gdb)
	for _, l := range []*model.Listing{
		{
			SellerUID: seller.UID,
			Type:      model.ListingTypeEV,
			Brand:     "VinFast",
			Model:     "VF 8 Eco",
			Year:      2023,
			MileageKm: &mileage,
			Price:     680000000,
			Status:    model.ListingStatusApproved,
			Payment: model.PaymentInfo{
				Method: model.PaymentMethodCash,
			},
		},
		{
			SellerUID:          seller.UID,
			Type:               model.ListingTypeBattery,
			Brand:              "CATL",
			Model:              "LFP 60kWh pack",
			Year:               2022,
			BatteryCapacityKWh: &capacity,
			Price:              95000000,
			Status:             model.ListingStatusPending,
			Payment: model.PaymentInfo{
				Method: model.PaymentMethodCash,
			},
		},
	} {
		if err := listings.Create(ctx, l); err != nil {
			return fmt.Errorf("create listing %s %s: %w", l.Brand, l.Model, err)
		}
	}

	log.Printf("seeded 3 users and 2 listings")
	log.Printf("admin uid: %s", admin.UID)
	log.Printf("seller uid: %s", seller.UID)
	log.Printf("buyer uid: %s", buyer.UID)
	return nil
}

func shouldSeed(gdb *gorm.DB) (bool, error) {
	if os.Getenv("FORCE_SEED") == "true" {
		return true, nil
	}
	var count int64
	if err := gdb.Model(&model.Listing{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count listings: %w", err)
	}
	return count == 0, nil
}
