package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("property not found")
	ErrAlreadySaved  = errors.New("property already saved")
	ErrLocationInUse = errors.New("location has properties")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Location struct {
	ID        uuid.UUID
	Name      string
	County    string
	Slug      string
	CreatedAt time.Time
}

func (r *Repository) CreateLocation(ctx context.Context, name, county string) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx, `
		INSERT INTO locations (name, county, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, county, slug, created_at
	`, name, county, Slugify(name+" "+county),
	).Scan(&loc.ID, &loc.Name, &loc.County, &loc.Slug, &loc.CreatedAt)
	return loc, err
}

func (r *Repository) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, county, slug, created_at FROM locations ORDER BY county, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]Location, 0)
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.County, &loc.Slug, &loc.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

type Property struct {
	ID           uuid.UUID
	AgentID      uuid.UUID
	LocationID   *uuid.UUID
	Title        string
	Slug         string
	Description  string
	PropertyType string
	ListingType  string
	Status       string
	PriceCents   int64
	Currency     string
	Bedrooms     int
	Bathrooms    int
	AreaSqm      *float64
	Address      string
	Latitude     *float64
	Longitude    *float64
	Amenities    []string
	ImageURLs    []string
	IsFeatured   bool
	ViewCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const propertyColumns = `id, agent_id, location_id, title, slug, description, property_type,
		listing_type, status, price_cents, currency, bedrooms, bathrooms, area_sqm,
		address, latitude, longitude, amenities, image_urls, is_featured, view_count,
		created_at, updated_at`

type CreatePropertyParams struct {
	AgentID      uuid.UUID
	LocationID   *uuid.UUID
	Title        string
	Slug         string
	Description  string
	PropertyType string
	ListingType  string
	PriceCents   int64
	Currency     string
	Bedrooms     int
	Bathrooms    int
	AreaSqm      *float64
	Address      string
	Latitude     *float64
	Longitude    *float64
	Amenities    []string
	ImageURLs    []string
}

func (r *Repository) Create(ctx context.Context, params CreatePropertyParams) (Property, error) {
	if params.Currency == "" {
		params.Currency = "KES"
	}
	if params.Amenities == nil {
		params.Amenities = []string{}
	}
	if params.ImageURLs == nil {
		params.ImageURLs = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (agent_id, location_id, title, slug, description, property_type,
			listing_type, price_cents, currency, bedrooms, bathrooms, area_sqm, address,
			latitude, longitude, amenities, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+propertyColumns,
		params.AgentID, params.LocationID, params.Title, params.Slug, params.Description,
		params.PropertyType, params.ListingType, params.PriceCents, params.Currency,
		params.Bedrooms, params.Bathrooms, params.AreaSqm, params.Address,
		params.Latitude, params.Longitude, params.Amenities, params.ImageURLs,
	)
	return scanProperty(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	return notFoundOnNoRows(scanProperty(row))
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE slug = $1`, slug)
	return notFoundOnNoRows(scanProperty(row))
}

type UpdatePropertyParams struct {
	LocationID    *uuid.UUID
	LocationIDSet bool
	Title         *string
	Description   *string
	PropertyType  *string
	ListingType   *string
	Status        *string
	PriceCents    *int64
	Bedrooms      *int
	Bathrooms     *int
	AreaSqm       *float64
	Address       *string
	Latitude      *float64
	Longitude     *float64
	Amenities     []string
	ImageURLs     []string
	IsFeatured    *bool
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdatePropertyParams) (Property, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.LocationIDSet {
		add("location_id", params.LocationID)
	}
	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.PropertyType != nil {
		add("property_type", *params.PropertyType)
	}
	if params.ListingType != nil {
		add("listing_type", *params.ListingType)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.PriceCents != nil {
		add("price_cents", *params.PriceCents)
	}
	if params.Bedrooms != nil {
		add("bedrooms", *params.Bedrooms)
	}
	if params.Bathrooms != nil {
		add("bathrooms", *params.Bathrooms)
	}
	if params.AreaSqm != nil {
		add("area_sqm", *params.AreaSqm)
	}
	if params.Address != nil {
		add("address", *params.Address)
	}
	if params.Latitude != nil {
		add("latitude", *params.Latitude)
	}
	if params.Longitude != nil {
		add("longitude", *params.Longitude)
	}
	if params.Amenities != nil {
		add("amenities", params.Amenities)
	}
	if params.ImageURLs != nil {
		add("image_urls", params.ImageURLs)
	}
	if params.IsFeatured != nil {
		add("is_featured", *params.IsFeatured)
	}

	query := `UPDATE properties SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + propertyColumns
	row := r.pool.QueryRow(ctx, query, args...)
	return notFoundOnNoRows(scanProperty(row))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ListParams struct {
	LocationID   *uuid.UUID
	AgentID      *uuid.UUID
	PropertyType *string
	ListingType  *string
	Status       *string
	MinPrice     *int64
	MaxPrice     *int64
	MinBedrooms  *int
	Featured     *bool
	Search       string
	Sort         string
	Limit        int
	Offset       int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Property, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if params.LocationID != nil {
		add("location_id = $%d", *params.LocationID)
	}
	if params.AgentID != nil {
		add("agent_id = $%d", *params.AgentID)
	}
	if params.PropertyType != nil {
		add("property_type = $%d", *params.PropertyType)
	}
	if params.ListingType != nil {
		add("listing_type = $%d", *params.ListingType)
	}
	if params.Status != nil {
		add("status = $%d", *params.Status)
	}
	if params.MinPrice != nil {
		add("price_cents >= $%d", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		add("price_cents <= $%d", *params.MaxPrice)
	}
	if params.MinBedrooms != nil {
		add("bedrooms >= $%d", *params.MinBedrooms)
	}
	if params.Featured != nil {
		add("is_featured = $%d", *params.Featured)
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR address ILIKE $%d)",
			len(args), len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM properties WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	switch params.Sort {
	case "price_asc":
		orderBy = "price_cents ASC"
	case "price_desc":
		orderBy = "price_cents DESC"
	case "popular":
		orderBy = "view_count DESC"
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 24
	}
	args = append(args, limit, params.Offset)
	query := fmt.Sprintf(`SELECT `+propertyColumns+` FROM properties WHERE %s ORDER BY is_featured DESC, %s LIMIT $%d OFFSET $%d`,
		whereClause, orderBy, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	properties := make([]Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		properties = append(properties, property)
	}
	return properties, total, rows.Err()
}

// IncrementViewCount bumps the denormalized counter. Detailed view records
// live in the analytics tables; this is only the cheap per-row total.
func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE properties SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM properties WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *Repository) SaveProperty(ctx context.Context, userID, propertyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO saved_properties (user_id, property_id) VALUES ($1, $2)
	`, userID, propertyID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrAlreadySaved
		case "23503":
			return ErrNotFound
		}
	}
	return err
}

func (r *Repository) UnsaveProperty(ctx context.Context, userID, propertyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_properties WHERE user_id = $1 AND property_id = $2`, userID, propertyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListSaved(ctx context.Context, userID uuid.UUID) ([]Property, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prefixColumns("p")+`
		FROM saved_properties s
		JOIN properties p ON p.id = s.property_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := make([]Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}
	return properties, rows.Err()
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

func prefixColumns(alias string) string {
	cols := strings.Split(propertyColumns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	err := row.Scan(
		&p.ID, &p.AgentID, &p.LocationID, &p.Title, &p.Slug, &p.Description,
		&p.PropertyType, &p.ListingType, &p.Status, &p.PriceCents, &p.Currency,
		&p.Bedrooms, &p.Bathrooms, &p.AreaSqm, &p.Address, &p.Latitude, &p.Longitude,
		&p.Amenities, &p.ImageURLs, &p.IsFeatured, &p.ViewCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func notFoundOnNoRows(property Property, err error) (Property, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	return property, err
}
