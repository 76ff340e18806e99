package main

import (
	"log"
	"os"

	"swift-ai-market/internal/model"
	"swift-ai-market/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	log.Println("Seeding Product Catalog...")

	// Embeddings are filled in afterwards by `catalogctl reindex`.
	products := []model.Product{
		{Name: "Aurora Noise Cancelling Headphones", Description: "Over-ear wireless headphones with adaptive noise cancellation and 30 hour battery life", Category: "Audio", Price: 199.99, Rating: 4.6, ReviewCount: 1280},
		{Name: "Pulse Bluetooth Speaker", Description: "Portable waterproof speaker with deep bass and 12 hour playtime", Category: "Audio", Price: 79.5, Rating: 4.3, ReviewCount: 842},
		{Name: "Echo Buds Pro", Description: "True wireless earbuds with active noise cancellation and wireless charging case", Category: "Audio", Price: 149, Rating: 4.4, ReviewCount: 2110},
		{Name: "Tactile Mechanical Keyboard", Description: "Hot-swappable mechanical keyboard with brown switches and RGB backlight", Category: "Peripherals", Price: 119, Rating: 4.5, ReviewCount: 634},
		{Name: "Glide Ergonomic Mouse", Description: "Vertical wireless mouse that reduces wrist strain during long work sessions", Category: "Peripherals", Price: 49.99, Rating: 4.2, ReviewCount: 915},
		{Name: "Vista 27 inch 4K Monitor", Description: "IPS monitor with HDR support and USB-C power delivery for laptops", Category: "Displays", Price: 389, Rating: 4.5, ReviewCount: 477},
		{Name: "Trail Running Shoes", Description: "Lightweight running shoes with grippy outsole for muddy trails", Category: "Sports", Price: 129.95, Rating: 4.1, ReviewCount: 356},
		{Name: "Summit Hiking Backpack 40L", Description: "Durable hiking backpack with rain cover and ventilated back panel", Category: "Sports", Price: 94, Rating: 4.7, ReviewCount: 289},
		{Name: "Barista Espresso Machine", Description: "Compact espresso machine with milk frother for lattes and cappuccinos", Category: "Kitchen", Price: 249, Rating: 4.4, ReviewCount: 1032},
		{Name: "Precision Kitchen Scale", Description: "Digital scale accurate to 0.1 gram for baking and coffee brewing", Category: "Kitchen", Price: 24.99, Rating: 4.6, ReviewCount: 2750},
	}

	for _, p := range products {
		var existing model.Product
		if err := db.Where("name = ?", p.Name).First(&existing).Error; err == nil {
			log.Printf("Product '%s' already exists, skipping...", p.Name)
			continue
		}

		if err := db.Create(&p).Error; err != nil {
			log.Printf("Error: Failed to seed product '%s': %v", p.Name, err)
			continue
		}
		log.Printf("Seeded product '%s' (id %d)", p.Name, p.Id)
	}

	log.Println("Seeding completed.")
}
