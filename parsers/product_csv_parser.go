package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ParseProductCSV reads a catalog seed file with the columns
// product_id,name,category,price,stock and optionally
// brand,warranty_weeks (Electronics) or size,color (Clothing).
// Malformed lines are logged and skipped.
func ParseProductCSV(r io.Reader, log *zap.Logger) ([]model.Product, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("product CSV is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read product CSV header: %w", err)
	}

	requiredHeaders := []string{"product_id", "name", "category", "price", "stock"}
	colIndex, err := getColIndex(header, requiredHeaders)
	if err != nil {
		return nil, err
	}

	var products []model.Product
	seen := make(map[string]bool)
	line := 1

	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("product CSV read error (skipped)", zap.Int("line", line), zap.Error(err))
			continue
		}

		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		id := get("product_id")
		name := get("name")
		if id == "" || name == "" {
			log.Warn("product CSV line without id or name (skipped)", zap.Int("line", line))
			continue
		}
		if seen[id] {
			log.Warn("duplicate product id (skipped)", zap.Int("line", line), zap.String("product_id", id))
			continue
		}

		price, err := decimal.NewFromString(get("price"))
		if err != nil || price.IsNegative() {
			log.Warn("invalid price (skipped)", zap.Int("line", line), zap.String("price", get("price")))
			continue
		}
		stock, err := strconv.Atoi(get("stock"))
		if err != nil || stock < 0 {
			log.Warn("invalid stock (skipped)", zap.Int("line", line), zap.String("stock", get("stock")))
			continue
		}

		p := model.Product{ID: id, Name: name, Price: price, Stock: stock}
		switch model.ParseCategory(get("category")) {
		case model.CategoryElectronics:
			weeks, _ := strconv.Atoi(get("warranty_weeks"))
			p.Details = model.ElectronicsDetails{Brand: get("brand"), WarrantyWeeks: weeks}
		case model.CategoryClothing:
			p.Details = model.ClothingDetails{Size: get("size"), Color: get("color")}
		}

		seen[id] = true
		products = append(products, p)
	}

	return products, nil
}
