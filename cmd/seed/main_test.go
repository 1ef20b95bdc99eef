package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/services"
)

func TestRun_IsIdempotentForSameSeed(t *testing.T) {
	dsn := fmt.Sprintf("file:seed_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cat := &services.CatalogService{DB: db}
	ctx := context.Background()

	first, err := run(ctx, cat, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	var rows int64
	db.Model(&domain.NutritionistService{}).Count(&rows)
	if first == 0 || rows != int64(first) {
		t.Fatalf("touched=%d rows=%d", first, rows)
	}

	if _, err := run(ctx, cat, rand.New(rand.NewPCG(7, 7))); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var again, nuts int64
	db.Model(&domain.NutritionistService{}).Count(&again)
	db.Model(&domain.Nutritionist{}).Count(&nuts)
	if again != rows || nuts != int64(len(nutritionists)) {
		t.Fatalf("rerun changed catalog: offerings %d->%d nutritionists=%d", rows, again, nuts)
	}
}
