package main

import (
	"context"
	"encoding/json"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/nmoreira/tienda-api/internal/domain/product"
	"github.com/nmoreira/tienda-api/internal/storage/file"
	"github.com/nmoreira/tienda-api/internal/storage/mongo"
)

type productJSON struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Code        string          `json:"code"`
	Price       decimal.Decimal `json:"price"`
	Status      bool            `json:"status"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Thumbnails  []string        `json:"thumbnails"`
}

func main() {
	var (
		mongoURI     string
		mongoDB      string
		dataDir      string
		productsFile string
	)

	flag.StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGODB_URI env); empty seeds the file store")
	flag.StringVar(&mongoDB, "mongo-database", "tienda", "MongoDB database name")
	flag.StringVar(&dataDir, "data-dir", "data", "directory for the JSON-file stores")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, mongoURI, mongoDB, dataDir, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, mongoURI, mongoDB, dataDir, productsFile string) error {
	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}

	var store product.Store
	if mongoURI != "" {
		slog.Info("connecting to MongoDB", slog.String("database", mongoDB))

		conn, err := mongo.Connect(ctx, mongoURI, mongoDB)
		if err != nil {
			return errors.Wrap(err, "connect to MongoDB")
		}
		defer conn.Close(context.Background())

		store = mongo.NewProductStore(conn)
	} else {
		slog.Info("seeding file store", slog.String("data_dir", dataDir))
		store = file.NewProductStore(dataDir)
	}

	return seedProducts(ctx, store, products)
}

// loadProducts reads the seed catalog from disk, falling back to the built-in
// sample catalog when no file exists at the given path.
func loadProducts(path string) ([]productJSON, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("products file not found, using built-in sample catalog", slog.String("path", path))
		return sampleCatalog(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	return products, nil
}

func seedProducts(ctx context.Context, store product.Store, products []productJSON) error {
	// Skip seeding when codes already present, so reruns stay idempotent.
	existing, err := store.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	seeded := make(map[string]bool, len(existing))
	for _, p := range existing {
		seeded[p.Code] = true
	}

	slog.Info("seeding products", slog.Int("count", len(products)))

	for _, in := range products {
		if seeded[in.Code] {
			slog.Info("skipping existing product", slog.String("code", in.Code))
			continue
		}

		thumbnails := in.Thumbnails
		if thumbnails == nil {
			thumbnails = []string{}
		}
		p := product.Product{
			Title:       in.Title,
			Description: in.Description,
			Code:        in.Code,
			Price:       in.Price,
			Status:      in.Status,
			Stock:       in.Stock,
			Category:    in.Category,
			Thumbnails:  thumbnails,
		}
		if err := store.Create(ctx, &p); err != nil {
			return errors.Wrapf(err, "create product %s", in.Code)
		}

		slog.Info("created product", slog.String("id", p.ID), slog.String("code", p.Code), slog.String("title", p.Title))
	}

	return nil
}

func sampleCatalog() []productJSON {
	return []productJSON{
		{
			Title:       "Camiseta",
			Description: "Camiseta de algodon",
			Code:        "C001",
			Price:       decimal.NewFromInt(1200),
			Status:      true,
			Stock:       25,
			Category:    "ropa",
			Thumbnails:  []string{},
		},
		{
			Title:       "Pantalon",
			Description: "Pantalon de jean",
			Code:        "C002",
			Price:       decimal.NewFromInt(3500),
			Status:      true,
			Stock:       10,
			Category:    "ropa",
			Thumbnails:  []string{},
		},
		{
			Title:       "Zapatos",
			Description: "Zapatos de cuero",
			Code:        "C003",
			Price:       decimal.NewFromInt(8000),
			Status:      true,
			Stock:       5,
			Category:    "calzado",
			Thumbnails:  []string{},
		},
	}
}
