// Seeds the diecast catalog. Safe to rerun: does nothing once products exist.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/safar/collectibles-store/internal/config"
	"github.com/safar/collectibles-store/internal/database"
	"github.com/safar/collectibles-store/internal/models"
	"github.com/safar/collectibles-store/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		log.Fatalf("Count products: %v", err)
	}
	if count > 0 {
		log.Printf("Catalog already has %d products, nothing to do", count)
		return
	}

	// All or nothing: a partial catalog would defeat the rerun check above.
	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		for _, p := range catalog() {
			created, err := store.CreateProduct(ctx, tx, p)
			if err != nil {
				return fmt.Errorf("create product %q: %w", p.Name, err)
			}
			log.Printf("Seeded product %d: %s", created.ID, created.Name)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Seed catalog: %v", err)
	}

	log.Printf("Seeded %d products", len(catalog()))
}

func catalog() []models.Product {
	return []models.Product{
		{
			Name:        "2020 Dodge Charger Hellcat",
			Category:    "Muscle Cars",
			Description: "Fast & Furious edition Dodge Charger Hellcat with detailed gray finish and black wheels.",
			Price:       decimal.NewFromInt(1500),
			Image:       "/images/products/dodge-charger-hellcat-gray.png",
			Stock:       15,
			Rarity:      "Common",
		},
		{
			Name:        "2020 Dodge Charger Hellcat Purple",
			Category:    "Muscle Cars",
			Description: "Stunning purple Dodge Charger Hellcat with racing stripes and gold wheels.",
			Price:       decimal.NewFromInt(1200),
			Image:       "/images/products/dodge-charger-hellcat-purple.png",
			Stock:       20,
			Rarity:      "Common",
		},
		{
			Name:        "Speed Bump Art Car",
			Category:    "Sports Cars",
			Description: "Colorful Speed Bump Hot Wheels art car with unique multi-color design.",
			Price:       decimal.NewFromInt(1800),
			Image:       "/images/products/speed-bump.png",
			Stock:       10,
			Rarity:      "Uncommon",
		},
		{
			Name:        "2018 Dodge Challenger SRT Demon",
			Category:    "Muscle Cars",
			Description: "Black Dodge Challenger SRT Demon with racing stripes and performance wheels.",
			Price:       decimal.NewFromInt(1700),
			Image:       "/images/products/dodge-challenger-srt.png",
			Stock:       12,
			Rarity:      "Common",
		},
		{
			Name:        "2015 Dodge Charger SRT",
			Category:    "Muscle Cars",
			Description: "Silver Mopar edition Dodge Charger SRT with black racing stripes.",
			Price:       decimal.NewFromInt(1600),
			Image:       "/images/products/dodge-charger-srt.png",
			Stock:       18,
			Rarity:      "Common",
		},
		{
			Name:             "Classic TV Series Batmobile",
			Category:         "Movie Cars",
			Description:      "Iconic Batman Classic TV Series Batmobile with detailed features.",
			Price:            decimal.NewFromInt(2000),
			Image:            "/images/products/batmobile.png",
			Stock:            8,
			IsLimitedEdition: true,
			Rarity:           "Rare",
		},
		{
			Name:             "Vintage Custom Muscle Car",
			Category:         "Muscle Cars",
			Description:      "Vintage Hot Wheels red muscle car with collector's button.",
			Price:            decimal.NewFromInt(2500),
			Image:            "/images/products/vintage-muscle-car.png",
			Stock:            5,
			IsLimitedEdition: true,
			Rarity:           "Very Rare",
		},
		{
			Name:        "Hot Wheels 3-Window '34",
			Category:    "Muscle Cars",
			Description: "Classic Hot Wheels 3-Window '34 with gold finish and flame detailing.",
			Price:       decimal.NewFromInt(1900),
			Image:       "/images/products/hot-wheels-34.png",
			Stock:       14,
			Rarity:      "Uncommon",
		},
		{
			Name:             "Porsche 935 Boulevard",
			Category:         "Sports Cars",
			Description:      "Premium Hot Wheels Boulevard Porsche 935 in black and white racing livery.",
			Price:            decimal.NewFromInt(2200),
			Image:            "/images/products/porsche-935.png",
			Stock:            7,
			IsLimitedEdition: true,
			Rarity:           "Rare",
		},
		{
			Name:             "Ford GT-40 - Ford Series",
			Category:         "Sports Cars",
			Description:      "Limited Edition 1/15,000 - Highly detailed with special wheels & tires and die-cast metal body.",
			Price:            decimal.NewFromInt(3500),
			Image:            "/images/products/ford-gt40-limited.jpeg",
			Stock:            3,
			IsLimitedEdition: true,
			Rarity:           "Ultra Rare",
		},
		{
			Name:             "Rodger Dodger - Gold Edition",
			Category:         "Muscle Cars",
			Description:      "Classic muscle car with exposed engine and gold finish with racing number 22.",
			Price:            decimal.NewFromInt(2800),
			Image:            "/images/products/rodger-dodger-gold.jpeg",
			Stock:            4,
			IsLimitedEdition: true,
			Rarity:           "Very Rare",
		},
		{
			Name:             "Limited Grip - Rod Squad",
			Category:         "Trucks",
			Description:      "Custom pickup truck with exposed engine and yellow wheels. Part of the Rod Squad series.",
			Price:            decimal.NewFromInt(2400),
			Image:            "/images/products/limited-grip-truck.jpeg",
			Stock:            6,
			IsLimitedEdition: true,
			Rarity:           "Rare",
		},
	}
}
