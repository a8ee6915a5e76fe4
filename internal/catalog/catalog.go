// Package catalog holds the immutable product list shown on the storefront.
package catalog

import (
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no product carries the requested id.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrInvalidProduct wraps validation failures while building a catalog.
	ErrInvalidProduct = errors.New("catalog: invalid product")
)

// Product is a catalog entry. Price is in whole naira.
type Product struct {
	ID     int
	Name   string
	Price  int64
	Images []string

	// Description is the markdown source; DescriptionHTML is the sanitized rendering.
	Description     string
	DescriptionHTML template.HTML
}

// Cover returns the first image reference.
func (p Product) Cover() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) clone() Product {
	cp := p
	cp.Images = append([]string(nil), p.Images...)
	return cp
}

// Catalog is a read-only product list ordered by id.
type Catalog struct {
	products []Product
	index    map[int]int
}

// New validates products and builds a catalog ordered by id.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		index:    make(map[int]int, len(products)),
	}
	for _, p := range products {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidProduct, p.ID)
		}
		c.index[p.ID] = -1
		c.products = append(c.products, p.clone())
	}
	sort.SliceStable(c.products, func(i, j int) bool {
		return c.products[i].ID < c.products[j].ID
	})
	for i, p := range c.products {
		c.index[p.ID] = i
	}
	return c, nil
}

func validate(p Product) error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: id must be positive (got %d)", ErrInvalidProduct, p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product %d has no name", ErrInvalidProduct, p.ID)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: product %d has negative price", ErrInvalidProduct, p.ID)
	}
	if len(p.Images) == 0 {
		return fmt.Errorf("%w: product %d has no images", ErrInvalidProduct, p.ID)
	}
	for _, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: product %d has an empty image reference", ErrInvalidProduct, p.ID)
		}
	}
	return nil
}

// All returns a copy of every product in catalog order.
func (c *Catalog) All() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p.clone())
	}
	return out
}

// Get looks up a product by id.
func (c *Catalog) Get(id int) (Product, error) {
	if c == nil {
		return Product{}, ErrNotFound
	}
	i, ok := c.index[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return c.products[i].clone(), nil
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}
