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
	ErrNotFound  = errors.New("agent profile not found")
	ErrDuplicate = errors.New("agent profile already exists")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Profile struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Slug            string
	AgencyName      string
	Bio             string
	LicenseNumber   string
	ExperienceYears int
	OfficeAddress   string
	Website         string
	WhatsAppNumber  string
	IsVerified      bool
	Rating          float64
	ReviewCount     int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const profileColumns = `p.id, p.user_id, p.slug, p.agency_name, p.bio, p.license_number,
		p.experience_years, p.office_address, p.website, p.whatsapp_number, p.is_verified,
		COALESCE(r.rating, 0), COALESCE(r.review_count, 0), p.created_at, p.updated_at`

const profileFrom = ` FROM agent_profiles p
	LEFT JOIN (
		SELECT agent_profile_id, avg(rating)::float8 AS rating, count(*)::int AS review_count
		FROM agent_reviews GROUP BY agent_profile_id
	) r ON r.agent_profile_id = p.id`

type CreateProfileParams struct {
	UserID          uuid.UUID
	Slug            string
	AgencyName      string
	Bio             string
	LicenseNumber   string
	ExperienceYears int
	OfficeAddress   string
	Website         string
	WhatsAppNumber  string
}

// Create inserts a fresh profile. The verified flag always starts false;
// vetting is a separate management step.
func (r *Repository) Create(ctx context.Context, params CreateProfileParams) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agent_profiles (user_id, slug, agency_name, bio, license_number,
			experience_years, office_address, website, whatsapp_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, slug, agency_name, bio, license_number, experience_years,
			office_address, website, whatsapp_number, is_verified, 0::float8, 0, created_at, updated_at
	`, params.UserID, params.Slug, params.AgencyName, params.Bio, params.LicenseNumber,
		params.ExperienceYears, params.OfficeAddress, params.Website, params.WhatsAppNumber)

	profile, err := scanProfile(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Profile{}, ErrDuplicate
	}
	return profile, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+profileFrom+` WHERE p.id = $1`, id)
	return notFoundOnNoRows(scanProfile(row))
}

func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+profileFrom+` WHERE p.user_id = $1`, userID)
	return notFoundOnNoRows(scanProfile(row))
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+profileFrom+` WHERE p.slug = $1`, slug)
	return notFoundOnNoRows(scanProfile(row))
}

type UpdateProfileParams struct {
	AgencyName      *string
	Bio             *string
	LicenseNumber   *string
	ExperienceYears *int
	OfficeAddress   *string
	Website         *string
	WhatsAppNumber  *string
}

func (r *Repository) UpdateByUserID(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE agent_profiles SET
				agency_name = COALESCE($2, agency_name),
				bio = COALESCE($3, bio),
				license_number = COALESCE($4, license_number),
				experience_years = COALESCE($5, experience_years),
				office_address = COALESCE($6, office_address),
				website = COALESCE($7, website),
				whatsapp_number = COALESCE($8, whatsapp_number),
				updated_at = now()
			WHERE user_id = $1
			RETURNING *
		)
		SELECT u.id, u.user_id, u.slug, u.agency_name, u.bio, u.license_number,
			u.experience_years, u.office_address, u.website, u.whatsapp_number, u.is_verified,
			COALESCE(r.rating, 0), COALESCE(r.review_count, 0), u.created_at, u.updated_at
		FROM updated u
		LEFT JOIN (
			SELECT agent_profile_id, avg(rating)::float8 AS rating, count(*)::int AS review_count
			FROM agent_reviews GROUP BY agent_profile_id
		) r ON r.agent_profile_id = u.id
	`, userID, params.AgencyName, params.Bio, params.LicenseNumber,
		params.ExperienceYears, params.OfficeAddress, params.Website, params.WhatsAppNumber)
	return notFoundOnNoRows(scanProfile(row))
}

type ListParams struct {
	VerifiedOnly bool
	Search       string
	Limit        int
	Offset       int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Profile, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	if params.VerifiedOnly {
		where = append(where, "p.is_verified")
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(p.agency_name ILIKE $%d OR p.slug ILIKE $%d)", len(args), len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM agent_profiles p WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, params.Offset)
	query := fmt.Sprintf(`SELECT `+profileColumns+profileFrom+`
		WHERE %s
		ORDER BY p.is_verified DESC, COALESCE(r.rating, 0) DESC, p.created_at ASC
		LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, total, rows.Err()
}

// SlugExists reports whether a slug is already taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM agent_profiles WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

type Review struct {
	ID         uuid.UUID
	ProfileID  uuid.UUID
	ReviewerID uuid.UUID
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

type CreateReviewParams struct {
	ProfileID  uuid.UUID
	ReviewerID uuid.UUID
	Rating     int
	Comment    string
}

func (r *Repository) CreateReview(ctx context.Context, params CreateReviewParams) (Review, error) {
	var review Review
	err := r.pool.QueryRow(ctx, `
		INSERT INTO agent_reviews (agent_profile_id, reviewer_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agent_profile_id, reviewer_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
		RETURNING id, agent_profile_id, reviewer_id, rating, comment, created_at
	`, params.ProfileID, params.ReviewerID, params.Rating, params.Comment,
	).Scan(&review.ID, &review.ProfileID, &review.ReviewerID, &review.Rating, &review.Comment, &review.CreatedAt)
	return review, err
}

func (r *Repository) ListReviews(ctx context.Context, profileID uuid.UUID) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, agent_profile_id, reviewer_id, rating, comment, created_at
		FROM agent_reviews
		WHERE agent_profile_id = $1
		ORDER BY created_at DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var review Review
		if err := rows.Scan(&review.ID, &review.ProfileID, &review.ReviewerID,
			&review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL slug.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Slug, &p.AgencyName, &p.Bio, &p.LicenseNumber,
		&p.ExperienceYears, &p.OfficeAddress, &p.Website, &p.WhatsAppNumber,
		&p.IsVerified, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func notFoundOnNoRows(profile Profile, err error) (Profile, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return profile, err
}
