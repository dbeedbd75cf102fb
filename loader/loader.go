package loader

import (
	"fmt"
	"io"
	"os"
	"strings"

	"storefront/database"
	"storefront/parsers"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// InitDatabase applies the schema and seeds the catalog from seedPath when the file exists.
func InitDatabase(db *sqlx.DB, seedPath, encoding string, log *zap.Logger) error {
	log.Info("applying database schema")
	if err := database.ApplySchema(db); err != nil {
		return fmt.Errorf("failed to apply schema.sql: %w", err)
	}

	if _, err := os.Stat(seedPath); os.IsNotExist(err) {
		log.Warn("catalog seed not found, skipping", zap.String("path", seedPath))
		return nil
	}
	inserted, err := LoadProductsCSV(db, seedPath, encoding, log)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", seedPath, err)
	}
	log.Info("catalog seed loaded", zap.String("path", seedPath), zap.Int("inserted", inserted))
	return nil
}

// NormalizeEncoding maps the accepted spellings of a catalog encoding,
// ignoring case and hyphens, to "utf-8" or "shift_jis".
func NormalizeEncoding(encoding string) (string, error) {
	switch strings.ToLower(strings.ReplaceAll(encoding, "-", "_")) {
	case "", "utf_8", "utf8":
		return "utf-8", nil
	case "shift_jis", "sjis":
		return "shift_jis", nil
	default:
		return "", fmt.Errorf("unsupported catalog encoding %q", encoding)
	}
}

// decoder wraps f for the configured file encoding.
func decoder(f io.Reader, encoding string) (io.Reader, error) {
	enc, err := NormalizeEncoding(encoding)
	if err != nil {
		return nil, err
	}
	if enc == "shift_jis" {
		return transform.NewReader(f, japanese.ShiftJIS.NewDecoder()), nil
	}
	return f, nil
}

// LoadProductsCSV inserts products from path that are not yet stored and
// returns how many were added. Existing products, and their stock, are left alone.
func LoadProductsCSV(db *sqlx.DB, path, encoding string, log *zap.Logger) (inserted int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("could not open file %s: %w", path, err)
	}
	defer f.Close()

	r, err := decoder(f, encoding)
	if err != nil {
		return 0, err
	}
	products, err := parsers.ParseProductCSV(r, log)
	if err != nil {
		return 0, err
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Warn("rolling back catalog seed", zap.Error(err))
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for _, p := range products {
		ok, err := database.InsertProductIfAbsentInTx(tx, p)
		if err != nil {
			return 0, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}
