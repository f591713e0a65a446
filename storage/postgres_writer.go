package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/renbrahe/parsing-ski/models"
)

// PostgresWriter mirrors the latest unified snapshot into PostgreSQL.
// Each Write replaces the whole table; only the current state of the
// shops is kept.
type PostgresWriter struct {
	db *sql.DB
}

var _ RecordWriter = (*PostgresWriter)(nil)

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS ski_listings (
			id          SERIAL PRIMARY KEY,
			shop        VARCHAR(50)   NOT NULL,
			brand       TEXT          NOT NULL DEFAULT '',
			model       TEXT          NOT NULL,
			condition   VARCHAR(20)   NOT NULL,
			orig_price  NUMERIC(10,2),
			price       NUMERIC(10,2) NOT NULL,
			length_cm   INTEGER       NOT NULL,
			url         TEXT          NOT NULL,
			created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_ski_listings_shop  ON ski_listings(shop);
		CREATE INDEX IF NOT EXISTS idx_ski_listings_price ON ski_listings(price);
		CREATE INDEX IF NOT EXISTS idx_ski_listings_brand ON ski_listings(brand);
	`)
	return err
}

// Clear deletes all existing listings from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM ski_listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the stored snapshot with the given records.
func (pw *PostgresWriter) Write(records []*models.UnifiedRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 100
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.UnifiedRecord) error {
	const cols = 8
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))

		var origPrice interface{}
		if r.OrigPrice != nil {
			origPrice = *r.OrigPrice
		}
		valueArgs = append(valueArgs,
			string(r.Shop), r.Brand, r.Model, r.Condition, origPrice, r.Price, r.LengthCM, r.URL)
	}

	query := fmt.Sprintf(`
		INSERT INTO ski_listings (shop, brand, model, condition, orig_price, price, length_cm, url)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
