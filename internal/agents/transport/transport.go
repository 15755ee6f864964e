package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateProfileRequest struct {
	AgencyName      string `json:"agencyName" binding:"required,max=200"`
	Bio             string `json:"bio" binding:"max=5000"`
	LicenseNumber   string `json:"licenseNumber" binding:"max=100"`
	ExperienceYears int    `json:"experienceYears" binding:"min=0,max=80"`
	OfficeAddress   string `json:"officeAddress" binding:"max=500"`
	Website         string `json:"website" binding:"omitempty,url,max=500"`
	WhatsAppNumber  string `json:"whatsappNumber"`
}

type UpdateProfileRequest struct {
	AgencyName      *string `json:"agencyName" binding:"omitempty,max=200"`
	Bio             *string `json:"bio" binding:"omitempty,max=5000"`
	LicenseNumber   *string `json:"licenseNumber" binding:"omitempty,max=100"`
	ExperienceYears *int    `json:"experienceYears" binding:"omitempty,min=0,max=80"`
	OfficeAddress   *string `json:"officeAddress" binding:"omitempty,max=500"`
	Website         *string `json:"website" binding:"omitempty,url,max=500"`
	WhatsAppNumber  *string `json:"whatsappNumber"`
}

type SetVerifiedRequest struct {
	Verified bool `json:"verified"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ListAgentsQuery struct {
	Verified bool   `form:"verified"`
	Search   string `form:"search" binding:"max=200"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=200"`
}

type ProfileResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"userId"`
	Slug            string    `json:"slug"`
	AgencyName      string    `json:"agencyName"`
	Bio             string    `json:"bio,omitempty"`
	LicenseNumber   string    `json:"licenseNumber,omitempty"`
	ExperienceYears int       `json:"experienceYears"`
	OfficeAddress   string    `json:"officeAddress,omitempty"`
	Website         string    `json:"website,omitempty"`
	WhatsAppNumber  string    `json:"whatsappNumber,omitempty"`
	IsVerified      bool      `json:"isVerified"`
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"reviewCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ProfileListResponse struct {
	Agents   []ProfileResponse `json:"agents"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type ReviewResponse struct {
	ID         uuid.UUID `json:"id"`
	ProfileID  uuid.UUID `json:"profileId"`
	ReviewerID uuid.UUID `json:"reviewerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
