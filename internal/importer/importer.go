package importer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"demand-service/internal/models"
	"demand-service/internal/util"

	"go.uber.org/zap"
)

// batchSize bounds one insert round trip
const batchSize = 1000

// categoryMap translates the supplier feed's raw category vocabulary into the
// display categories the catalog uses. The mapping lives here, never in the
// voting core; unmapped categories pass through unchanged.
var categoryMap = map[string]string{
	"Ice Cream":                                   "Frozen Desserts",
	"Frozen Ready Meals, Accompaniments & Snacks": "Frozen Ready Meals",
	"Frozen Vegetables & Vegetarian":              "Frozen Vegetables",
	"Frozen Potato":                               "Frozen Potatoes",
	"Frozen Desserts, Fruit & Pastry":             "Frozen Desserts",
	"Frozen Savoury Pastry":                       "Frozen Pastry",
	"Frozen Meat & Poultry":                       "Frozen Meat",
	"Ales, Stout & Lager":                         "Beer",
	"Flavoured Alcoholic":                         "Alcoholic Beverages",
	"Fortified Wines":                             "Wine",
	"Crisps Snacks & Nuts":                        "Snacks",
	"Seasonal & Boxed Confectionery":              "Confectionery",
	"Chilled Prepared/Convenience Foods":          "Chilled Foods",
	"Fresh Meat & Poultry":                        "Fresh Meat",
	"Fresh Bread & Morning Goods":                 "Fresh Bread",
	"Fresh Milk & Cream":                          "Fresh Dairy",
	"Canned & Packet Foods":                       "Canned Foods",
	"Hot Beverages":                               "Hot Drinks",
	"Breakfast Cereal":                            "Cereals",
	"Home Baking and Desserts":                    "Baking",
	"Cooking Ingredients":                         "Cooking",
	"Jams & Spreads":                              "Spreads",
	"International Foods":                         "International",
	"Toiletries & Beauty":                         "Toiletries",
	"Smoking Alternative":                         "Smoking",
	"Stationery & Wrap":                           "Stationery",
	"Business Consumables":                        "Business",
	"Domestic Fuel":                               "Fuel",
}

// categoryImages assigns a placeholder image per display category
var categoryImages = map[string]string{
	"Frozen Desserts":   "https://images.unsplash.com/photo-1563805042-7684c019e1cb?w=200",
	"Frozen Vegetables": "https://images.unsplash.com/photo-1540420773420-3366772f4999?w=200",
	"Beer":              "https://images.unsplash.com/photo-1510812431401-41d2bd2722f3?w=200",
	"Wine":              "https://images.unsplash.com/photo-1510812431401-41d2bd2722f3?w=200",
	"Soft Drinks":       "https://images.unsplash.com/photo-1629203851122-3726ecdf080e?w=200",
	"Hot Drinks":        "https://images.unsplash.com/photo-1629203851122-3726ecdf080e?w=200",
	"Confectionery":     "https://images.unsplash.com/photo-1578985545062-69928b1d9587?w=200",
	"Snacks":            "https://images.unsplash.com/photo-1578985545062-69928b1d9587?w=200",
	"Fresh Meat":        "https://images.unsplash.com/photo-1546833999-b9f581a1996d?w=200",
	"Fresh Produce":     "https://images.unsplash.com/photo-1540420773420-3366772f4999?w=200",
	"Fresh Bread":       "https://images.unsplash.com/photo-1509440159596-0249088772ff?w=200",
	"Fresh Dairy":       "https://images.unsplash.com/photo-1550583724-b2692b85b150?w=200",
	"Chilled Foods":     "https://images.unsplash.com/photo-1550583724-b2692b85b150?w=200",
	"Other":             "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=200",
}

type feedDocument struct {
	XMLName  xml.Name      `xml:"costcutter-response"`
	Products []feedProduct `xml:"body>full-download-response>products>product"`
}

type feedProduct struct {
	SupplierCode     string `xml:"supplier-code"`
	InnerBarcode     string `xml:"inner-barcode"`
	ProductCode      string `xml:"product-code"`
	ShortDescription string `xml:"short-description"`
	LongDescription  string `xml:"long-description"`
	PackQuantity     string `xml:"pack-quantity"`
	UnitSize         string `xml:"unit-size"`
	UnitDescription  string `xml:"unit-description"`
	CostPrice        string `xml:"cost-price"`
	RSP              string `xml:"rsp"`
	Category         string `xml:"category"`
}

// ProductStore is the importer's write surface; *store.Store satisfies it
type ProductStore interface {
	InsertProductBatch(ctx context.Context, products []models.Product) error
}

// Importer turns a supplier feed download into catalog records
type Importer struct {
	store  ProductStore
	logger *zap.Logger
}

// NewImporter creates an importer
func NewImporter(store ProductStore) *Importer {
	return &Importer{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ParseFeed decodes the supplier XML download into catalog products. Row
// identity is product code + supplier code + row index, matching the records
// already in the store from earlier imports.
func ParseFeed(r io.Reader) ([]models.Product, error) {
	var doc feedDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse supplier feed: %w", err)
	}

	products := make([]models.Product, 0, len(doc.Products))
	for i, row := range doc.Products {
		products = append(products, transformRow(row, i))
	}
	return products, nil
}

func transformRow(row feedProduct, index int) models.Product {
	category := MapCategory(row.Category)

	name := row.ShortDescription
	if name == "" {
		name = "Unknown Product"
	}
	description := row.LongDescription
	if description == "" {
		description = name
	}

	productCode := row.ProductCode
	if productCode == "" {
		productCode = "unknown"
	}
	supplierCode := row.SupplierCode
	if supplierCode == "" {
		supplierCode = "supplier"
	}

	costPrice, _ := strconv.ParseFloat(row.CostPrice, 64)
	retailPrice, _ := strconv.ParseFloat(row.RSP, 64)
	packQuantity, _ := strconv.Atoi(row.PackQuantity)

	return models.Product{
		ID:              fmt.Sprintf("%s-%s-%d", productCode, supplierCode, index),
		Name:            name,
		Category:        category,
		Description:     description,
		ImageURL:        CategoryImage(category),
		CostPrice:       costPrice,
		RetailPrice:     retailPrice,
		PackQuantity:    packQuantity,
		UnitSize:        row.UnitSize,
		UnitDescription: row.UnitDescription,
		Barcode:         row.InnerBarcode,
		SupplierCode:    row.SupplierCode,
	}
}

// MapCategory translates a raw supplier category to its display category
func MapCategory(raw string) string {
	if raw == "" {
		return "Other"
	}
	if mapped, ok := categoryMap[raw]; ok {
		return mapped
	}
	return raw
}

// CategoryImage returns the placeholder image for a display category
func CategoryImage(category string) string {
	if url, ok := categoryImages[category]; ok {
		return url
	}
	return categoryImages["Other"]
}

// Import batch-inserts parsed products. Valid rows become records; there are
// no runtime invariants to enforce here.
func (im *Importer) Import(ctx context.Context, products []models.Product) (int, error) {
	imported := 0
	for start := 0; start < len(products); start += batchSize {
		end := start + batchSize
		if end > len(products) {
			end = len(products)
		}

		if err := im.store.InsertProductBatch(ctx, products[start:end]); err != nil {
			return imported, fmt.Errorf("batch at row %d failed: %w", start, err)
		}
		imported += end - start

		im.logger.Info("Imported batch",
			zap.Int("imported", imported),
			zap.Int("total", len(products)))
	}
	return imported, nil
}
