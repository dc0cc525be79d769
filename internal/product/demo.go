package product

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed demo_catalog.yaml
var demoCatalogYAML []byte

type demoFile struct {
	Products []struct {
		ID          string `yaml:"id"`
		Slug        string `yaml:"slug"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		ImageURL    string `yaml:"imageUrl"`
		Price       string `yaml:"price"`
		Stock       int    `yaml:"stock"`
	} `yaml:"products"`
}

// Catalog is a read-only in-memory product set.
type Catalog struct {
	items []Product
	byID  map[string]int
}

func LoadDemoCatalog() (*Catalog, error) {
	return ParseCatalog(demoCatalogYAML)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var f demoFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(f.Products))}
	for _, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("parse catalog: price of %s: %w", p.ID, err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate id %s", p.ID)
		}
		c.byID[p.ID] = len(c.items)
		c.items = append(c.items, Product{
			ID:          p.ID,
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Price:       price,
			Stock:       p.Stock,
			IsActive:    true,
		})
	}
	return c, nil
}

func (c *Catalog) Lookup(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.items[i], true
}

func (c *Catalog) All() []Product {
	out := make([]Product, len(c.items))
	copy(out, c.items)
	return out
}
