// Package main seeds the admin account and the default top-up providers.
// Safe to run repeatedly: existing rows are left untouched.
package main

import (
	"context"
	"log"
	"os"

	"github.com/bbraka/wallet-pay-sub000/internal/config"
	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
		if repositories.Cache != nil {
			repositories.Cache.Close()
		}
	}()

	ctx := context.Background()
	userRepo := repositories.NewUserRepository(repositories.DB)
	providerRepo := repositories.NewProviderRepository(repositories.DB)

	if _, err := userRepo.GetByEmail(ctx, adminEmail); err == nil {
		log.Println("Admin user already exists")
	} else {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Failed to hash password:", err)
		}
		admin := &models.User{
			Email:    adminEmail,
			Password: string(hashedPassword),
			Name:     config.GetEnv("ADMIN_NAME", "Administrator"),
			Role:     models.RoleAdmin,
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			log.Fatal("Failed to create admin user:", err)
		}
		log.Println("Admin account created")
	}

	providers := []models.TopUpProvider{
		{Name: "bank-transfer", Active: true, RequiresReference: true},
		{Name: "cash-desk", Active: true, RequiresReference: false},
	}
	for i := range providers {
		if err := providerRepo.Upsert(ctx, &providers[i]); err != nil {
			log.Fatal("Failed to seed provider:", err)
		}
	}
	log.Println("Top-up providers seeded")
}
