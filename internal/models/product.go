package models

import "time"

// ProductImage references an object uploaded to the media bucket.
type ProductImage struct {
	Key string `json:"key" dynamodbav:"key"`
	URL string `json:"url" dynamodbav:"url"`
}

type Product struct {
	ID        string         `json:"id" dynamodbav:"id"`
	Title     string         `json:"title" dynamodbav:"title"`
	About     string         `json:"about" dynamodbav:"about"`
	Category  string         `json:"category" dynamodbav:"category"`
	Price     float64        `json:"price" dynamodbav:"price"`
	Stock     int            `json:"stock" dynamodbav:"stock"`
	Sold      int            `json:"sold" dynamodbav:"sold"`
	Images    []ProductImage `json:"images" dynamodbav:"images"`
	CreatedAt time.Time      `json:"created_at" dynamodbav:"created_at"`
}

func (p *Product) GetPK() string {
	return "PRODUCT#" + p.ID
}

func (p *Product) GetSK() string {
	return "METADATA"
}
