package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreatePropertyRequest struct {
	LocationID   *uuid.UUID `json:"locationId"`
	Title        string     `json:"title" binding:"required,max=255"`
	Description  string     `json:"description" binding:"max=10000"`
	PropertyType string     `json:"propertyType" binding:"required,oneof=apartment house townhouse villa bedsitter studio land commercial office"`
	ListingType  string     `json:"listingType" binding:"required,oneof=sale rent"`
	PriceCents   int64      `json:"priceCents" binding:"required,min=1"`
	Bedrooms     int        `json:"bedrooms" binding:"min=0,max=50"`
	Bathrooms    int        `json:"bathrooms" binding:"min=0,max=50"`
	AreaSqm      *float64   `json:"areaSqm" binding:"omitempty,gt=0"`
	Address      string     `json:"address" binding:"max=500"`
	Latitude     *float64   `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude" binding:"omitempty,longitude"`
	Amenities    []string   `json:"amenities"`
	ImageURLs    []string   `json:"imageUrls" binding:"omitempty,dive,url"`
}

type UpdatePropertyRequest struct {
	LocationID   *uuid.UUID `json:"locationId"`
	Title        *string    `json:"title" binding:"omitempty,max=255"`
	Description  *string    `json:"description" binding:"omitempty,max=10000"`
	PropertyType *string    `json:"propertyType" binding:"omitempty,oneof=apartment house townhouse villa bedsitter studio land commercial office"`
	ListingType  *string    `json:"listingType" binding:"omitempty,oneof=sale rent"`
	Status       *string    `json:"status" binding:"omitempty,oneof=available pending sold rented withdrawn"`
	PriceCents   *int64     `json:"priceCents" binding:"omitempty,min=1"`
	Bedrooms     *int       `json:"bedrooms" binding:"omitempty,min=0,max=50"`
	Bathrooms    *int       `json:"bathrooms" binding:"omitempty,min=0,max=50"`
	AreaSqm      *float64   `json:"areaSqm" binding:"omitempty,gt=0"`
	Address      *string    `json:"address" binding:"omitempty,max=500"`
	Latitude     *float64   `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude" binding:"omitempty,longitude"`
	Amenities    []string   `json:"amenities"`
	ImageURLs    []string   `json:"imageUrls" binding:"omitempty,dive,url"`
	IsFeatured   *bool      `json:"isFeatured"`
}

type CreateLocationRequest struct {
	Name   string `json:"name" binding:"required,max=200"`
	County string `json:"county" binding:"required,max=100"`
}

type ListPropertiesQuery struct {
	LocationID   string `form:"locationId" binding:"omitempty,uuid"`
	AgentID      string `form:"agentId" binding:"omitempty,uuid"`
	PropertyType string `form:"propertyType"`
	ListingType  string `form:"listingType" binding:"omitempty,oneof=sale rent"`
	Status       string `form:"status" binding:"omitempty,oneof=available pending sold rented withdrawn"`
	MinPrice     *int64 `form:"minPrice" binding:"omitempty,min=0"`
	MaxPrice     *int64 `form:"maxPrice" binding:"omitempty,min=0"`
	MinBedrooms  *int   `form:"minBedrooms" binding:"omitempty,min=0"`
	Featured     *bool  `form:"featured"`
	Search       string `form:"search" binding:"max=200"`
	Sort         string `form:"sort" binding:"omitempty,oneof=newest price_asc price_desc popular"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

type PropertyResponse struct {
	ID           uuid.UUID  `json:"id"`
	AgentID      uuid.UUID  `json:"agentId"`
	LocationID   *uuid.UUID `json:"locationId,omitempty"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description,omitempty"`
	PropertyType string     `json:"propertyType"`
	ListingType  string     `json:"listingType"`
	Status       string     `json:"status"`
	PriceCents   int64      `json:"priceCents"`
	Currency     string     `json:"currency"`
	Bedrooms     int        `json:"bedrooms"`
	Bathrooms    int        `json:"bathrooms"`
	AreaSqm      *float64   `json:"areaSqm,omitempty"`
	Address      string     `json:"address,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Amenities    []string   `json:"amenities"`
	ImageURLs    []string   `json:"imageUrls"`
	IsFeatured   bool       `json:"isFeatured"`
	ViewCount    int        `json:"viewCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type PropertyListResponse struct {
	Properties []PropertyResponse `json:"properties"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
}

type LocationResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	County string    `json:"county"`
	Slug   string    `json:"slug"`
}
