package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/wdland/fastfood-ordering/internal/repository"
)

type productJSON struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageName string          `json:"image_name"`
}

type fastFoodJSON struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		fastFoodsFile string
		staffUsername string
		staffPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.gz supported)")
	flag.StringVar(&fastFoodsFile, "fastfoods-file", "db/seed/fastfoods.json", "path to fast foods JSON file (.gz supported)")
	flag.StringVar(&staffUsername, "staff-username", "ristoratore", "username for the seeded staff account")
	flag.StringVar(&staffPassword, "staff-password", "", "password for the seeded staff account (or FFORDER_SEED_STAFF_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if staffPassword == "" {
		staffPassword = os.Getenv("FFORDER_SEED_STAFF_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, fastFoodsFile, staffUsername, staffPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, fastFoodsFile, staffUsername, staffPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(seedProducts(gctx, pool, productsFile), "seed products")
	})
	g.Go(func() error {
		return errors.Wrap(seedFastFoods(gctx, pool, fastFoodsFile), "seed fast foods")
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if staffPassword != "" {
		if err := seedStaffAccount(ctx, pool, staffUsername, staffPassword); err != nil {
			return errors.Wrap(err, "seed staff account")
		}
	} else {
		slog.Info("no staff password provided, skipping staff account")
	}

	return nil
}

// readSeedFile reads a seed file, transparently decompressing files with a
// .gz suffix.
func readSeedFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}
	return data, nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := readSeedFile(productsFile)
	if err != nil {
		return err
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	const upsertSQL = `
		INSERT INTO products (name, price, image_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET price = EXCLUDED.price, image_name = EXCLUDED.image_name
	`

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertSQL, p.Name, p.Price, p.ImageName); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Name)
		}

		slog.Info("upserted product", slog.String("name", p.Name), slog.String("price", p.Price.StringFixed(2)))
	}

	return nil
}

func seedFastFoods(ctx context.Context, pool *pgxpool.Pool, fastFoodsFile string) error {
	slog.Info("reading fast foods file", slog.String("path", fastFoodsFile))

	data, err := readSeedFile(fastFoodsFile)
	if err != nil {
		return err
	}

	var fastFoods []fastFoodJSON
	if err := json.Unmarshal(data, &fastFoods); err != nil {
		return errors.Wrap(err, "parse fast foods JSON")
	}

	slog.Info("upserting fast foods", slog.Int("count", len(fastFoods)))

	const upsertSQL = `
		INSERT INTO fast_foods (name, address, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET address = EXCLUDED.address, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	`

	for _, ff := range fastFoods {
		if _, err := pool.Exec(ctx, upsertSQL, ff.Name, ff.Address, ff.Latitude, ff.Longitude); err != nil {
			return errors.Wrapf(err, "upsert fast food %s", ff.Name)
		}

		slog.Info("upserted fast food", slog.String("name", ff.Name), slog.String("address", ff.Address))
	}

	return nil
}

// seedStaffAccount creates a ristoratore login for the order management
// board. Existing accounts with the same username are left untouched.
func seedStaffAccount(ctx context.Context, pool *pgxpool.Pool, username, password string) error {
	slog.Info("seeding staff account", slog.String("username", username))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	const insertUserSQL = `
		INSERT INTO users (username, password_hash, is_ristoratore)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`

	var userID int64
	err = pool.QueryRow(ctx, insertUserSQL, username, string(hash)).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		slog.Info("staff account already exists", slog.String("username", username))
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "insert staff user")
	}

	// Staff accounts get a cart too, so the same login can browse products.
	const insertCartSQL = `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := pool.Exec(ctx, insertCartSQL, userID); err != nil {
		return errors.Wrap(err, "insert staff cart")
	}

	slog.Info("staff account created", slog.String("username", username), slog.Int64("id", userID))
	return nil
}
