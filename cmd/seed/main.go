// seed inserts a demo catalog and a verified demo user into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ErlanBelekov/storefront/internal/infrastructure/postgres"
)

const (
	seedUsername = "demo"
	seedEmail    = "demo@storefront.local"
	seedPassword = "demo-password"
	seedCategory = "apparel"
)

type variantSpec struct {
	sku, color, size string
	price            string
	stock            int
}

type productSpec struct {
	title    string
	variants []variantSpec
}

var catalog = []productSpec{
	{"Classic Tee", []variantSpec{
		{"TEE-RED-M", "Red", "M", "499.00", 40},
		{"TEE-RED-L", "Red", "L", "499.00", 25},
		{"TEE-BLK-M", "Black", "M", "549.00", 30},
	}},
	{"Denim Jacket", []variantSpec{
		{"JKT-BLU-M", "Blue", "M", "2499.00", 8},
		{"JKT-BLU-XL", "Blue", "XL", "2599.50", 3},
	}},
	{"Canvas Tote", []variantSpec{
		{"TOTE-NAT", "Natural", "", "299.90", 100},
	}},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var userID string
	err = pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_verified, is_active)
		VALUES ($1, $2, $3, TRUE, TRUE)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = NOW()
		RETURNING id`,
		seedUsername, seedEmail, string(hash),
	).Scan(&userID)
	if err != nil {
		log.Fatalf("upsert user: %v", err)
	}

	var variantIDs []string
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var categoryID string
		err := tx.QueryRow(ctx, `
			INSERT INTO categories (name, slug) VALUES ('Apparel', $1)
			ON CONFLICT (slug) DO NOTHING
			RETURNING id`, seedCategory,
		).Scan(&categoryID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil // already seeded
		}
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}

		for _, p := range catalog {
			var productID string
			if err := tx.QueryRow(ctx,
				`INSERT INTO products (category_id, title) VALUES ($1, $2) RETURNING id`,
				categoryID, p.title,
			).Scan(&productID); err != nil {
				return fmt.Errorf("insert product %s: %w", p.title, err)
			}

			for _, v := range p.variants {
				var id string
				if err := tx.QueryRow(ctx, `
					INSERT INTO product_variants (product_id, sku, color, size, price, stock)
					VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
					RETURNING id`,
					productID, v.sku, v.color, v.size, decimal.RequireFromString(v.price), v.stock,
				).Scan(&id); err != nil {
					return fmt.Errorf("insert variant %s: %w", v.sku, err)
				}
				variantIDs = append(variantIDs, id)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:     %s / %s\n", seedEmail, seedPassword)
	fmt.Printf("  User ID:  %s\n", userID)
	if len(variantIDs) == 0 {
		fmt.Println("  Catalog:  already present, skipped")
	} else {
		fmt.Printf("  Variants: %d created\n", len(variantIDs))
		for _, id := range variantIDs {
			fmt.Printf("    %s\n", id)
		}
	}

	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  curl -s -X POST http://localhost:8080/accounts/login \\")
	fmt.Println("    -H 'Content-Type: application/json' \\")
	fmt.Printf("    -d '{\"username\":\"%s\",\"password\":\"%s\"}'\n", seedUsername, seedPassword)
	fmt.Println()
	fmt.Println("  export JWT=<tokens.access>")
	fmt.Println("  curl -s -X POST http://localhost:8080/cart/add -H \"Authorization: Bearer $JWT\" \\")
	fmt.Println("    -H 'Content-Type: application/json' -d '{\"variant_id\":\"VARIANT_ID\",\"quantity\":2}'")
	fmt.Println("  curl -s -X POST http://localhost:8080/orders/place -H \"Authorization: Bearer $JWT\"")
}
