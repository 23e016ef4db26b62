package store

import (
	"context"
	"fmt"
	"time"

	"demand-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Sentinel errors for expected store conflicts. Both map to the Postgres
// unique-violation code so the constraint stays the final arbiter.
var (
	ErrDuplicateVote = fmt.Errorf("vote already recorded for this voter")
	ErrProductExists = fmt.Errorf("product already exists")
)

const pgUniqueViolation = "23505"

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductViewPage reads one fixed-size chunk of the products_with_votes
// read view. Ordering is by name ascending or vote count descending; the
// caller picks per presentation need.
func (s *Store) GetProductViewPage(ctx context.Context, orderBy string, offset, limit int) ([]models.ProductView, error) {
	var order string
	switch orderBy {
	case models.OrderByVoteCount:
		order = "vote_count DESC, name ASC"
	default:
		order = "name ASC"
	}

	query := fmt.Sprintf(
		"SELECT * FROM products_with_votes ORDER BY %s OFFSET $1 LIMIT $2", order)

	var views []models.ProductView
	err := s.db.SelectContext(ctx, &views, query, offset, limit)
	return views, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("product not found: %s: %w", id, err)
	}
	return &product, nil
}

// InsertProduct inserts a new catalog record. A primary-key conflict returns
// ErrProductExists; everything else passes through wrapped.
func (s *Store) InsertProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (
			id, name, category, description, image_url,
			cost_price, retail_price, pack_quantity,
			unit_size, unit_description, barcode, supplier_code
		) VALUES (
			:id, :name, :category, :description, :image_url,
			:cost_price, :retail_price, :pack_quantity,
			:unit_size, :unit_description, :barcode, :supplier_code
		)`

	_, err := s.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
			return ErrProductExists
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// InsertProductBatch inserts many products in one round trip. Used by the
// importer; conflicts on individual rows fail the whole batch.
func (s *Store) InsertProductBatch(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	query := `
		INSERT INTO products (
			id, name, category, description, image_url,
			cost_price, retail_price, pack_quantity,
			unit_size, unit_description, barcode, supplier_code
		) VALUES (
			:id, :name, :category, :description, :image_url,
			:cost_price, :retail_price, :pack_quantity,
			:unit_size, :unit_description, :barcode, :supplier_code
		) ON CONFLICT (id) DO NOTHING`

	_, err := s.db.NamedExecContext(ctx, query, products)
	if err != nil {
		return fmt.Errorf("failed to insert product batch: %w", err)
	}
	return nil
}

// CountProducts returns the catalog size
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products")
	return count, err
}
