package webhook

import (
	"regexp"
	"strings"
)

// ExtractedFields holds the contact details pulled out of a raw form payload
// via best-effort label matching.
type ExtractedFields struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Message      string
	PropertyID   string
	PropertyType string
	Location     string
}

// IsIncomplete reports whether the submission lacks a name or a way to reach
// the sender.
func (e ExtractedFields) IsIncomplete() bool {
	hasName := e.FirstName != "" || e.LastName != ""
	hasContact := e.Phone != "" || e.Email != ""
	return !hasName || !hasContact
}

// ExtractFields pulls known fields from a flat string map. Labels are matched
// case-insensitively so the same endpoint serves any site's form markup.
func ExtractFields(data map[string]string) ExtractedFields {
	var result ExtractedFields

	for key, value := range data {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(key))

		switch {
		case matchesAny(k, firstNamePatterns):
			result.FirstName = value
		case matchesAny(k, lastNamePatterns):
			result.LastName = value
		case matchesAny(k, fullNamePatterns):
			parts := strings.SplitN(value, " ", 2)
			result.FirstName = parts[0]
			if len(parts) > 1 {
				result.LastName = parts[1]
			}
		case matchesAny(k, emailPatterns):
			if emailRegex.MatchString(value) {
				result.Email = value
			}
		case matchesAny(k, phonePatterns):
			result.Phone = value
		case matchesAny(k, messagePatterns):
			result.Message = value
		case matchesAny(k, propertyIDPatterns):
			result.PropertyID = value
		case matchesAny(k, propertyTypePatterns):
			result.PropertyType = strings.ToLower(value)
		case matchesAny(k, locationPatterns):
			result.Location = value
		}
	}

	// A bare "name" field often carries "first last".
	if result.FirstName != "" && result.LastName == "" && strings.Contains(result.FirstName, " ") {
		parts := strings.SplitN(result.FirstName, " ", 2)
		result.FirstName = parts[0]
		result.LastName = parts[1]
	}

	return result
}

func matchesAny(key string, patterns []string) bool {
	for _, p := range patterns {
		if key == p {
			return true
		}
	}
	return false
}

// Field label patterns (English + Swahili)
var (
	firstNamePatterns    = []string{"first_name", "firstname", "first name", "fname", "given_name"}
	lastNamePatterns     = []string{"last_name", "lastname", "last name", "lname", "surname", "family_name"}
	fullNamePatterns     = []string{"name", "full_name", "fullname", "your_name", "your name", "jina"}
	emailPatterns        = []string{"email", "e-mail", "email_address", "emailaddress", "mail", "barua_pepe"}
	phonePatterns        = []string{"phone", "tel", "telephone", "phone_number", "phonenumber", "mobile", "mpesa_number", "simu", "namba_ya_simu", "whatsapp"}
	messagePatterns      = []string{"message", "comment", "comments", "notes", "description", "enquiry", "inquiry", "question", "ujumbe"}
	propertyIDPatterns   = []string{"property_id", "propertyid", "listing_id", "listingid"}
	propertyTypePatterns = []string{"property_type", "propertytype", "house_type", "type"}
	locationPatterns     = []string{"location", "area", "neighbourhood", "neighborhood", "estate", "town", "city", "county", "mtaa"}
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
