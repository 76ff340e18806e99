package entity

import "time"

type Product struct {
	Id          int64
	Name        string
	Description string
	Category    string
	Price       float64
	Rating      float64
	ReviewCount int
	Image       string
	Embedding   []float32 // nil while the product is not searchable
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// SearchText is the text embedded for the product.
func (p *Product) SearchText() string {
	return p.Name + " " + p.Description
}

type ProductFilter struct {
	Category string
	Query    string
	Limit    int
	Offset   int
}
