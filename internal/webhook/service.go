package webhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"kejani_backend/internal/leads/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/phone"
)

// LeadIntake is the slice of the leads module capture channels consume.
type LeadIntake interface {
	FindOrCreate(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, bool, error)
	AddInteraction(ctx context.Context, leadID uuid.UUID, req transport.CreateInteractionRequest) (transport.InteractionResponse, error)
	RecordWhatsAppMessage(ctx context.Context, leadID uuid.UUID, direction, body, waMessageID string) (transport.WhatsAppMessageResponse, error)
}

// FormSubmission is an inbound contact form capture.
type FormSubmission struct {
	Fields       map[string]string
	SourceDomain string
}

// FormSubmissionResponse is returned to the posting site.
type FormSubmissionResponse struct {
	LeadID       uuid.UUID `json:"leadId"`
	Created      bool      `json:"created"`
	IsIncomplete bool      `json:"isIncomplete"`
	Message      string    `json:"message"`
}

// InboundWhatsAppMessage is the payload the WhatsApp gateway posts for each
// received message.
type InboundWhatsAppMessage struct {
	From     string `json:"from" binding:"required"`
	Pushname string `json:"pushname"`
	Message  struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"message"`
}

// SubmissionStore persists raw capture payloads for audit.
type SubmissionStore interface {
	RecordSubmission(ctx context.Context, leadID uuid.UUID, channel, sourceDomain string, raw []byte) error
}

type Service struct {
	repo   SubmissionStore
	intake LeadIntake
	log    *logger.Logger
}

func NewService(repo SubmissionStore, intake LeadIntake, log *logger.Logger) *Service {
	return &Service{repo: repo, intake: intake, log: log}
}

// ProcessFormSubmission turns a raw form post into a lead. Repeat submissions
// from the same contact land on the existing lead as a new interaction
// instead of a duplicate.
func (s *Service) ProcessFormSubmission(ctx context.Context, sub FormSubmission) (FormSubmissionResponse, error) {
	extracted := ExtractFields(sub.Fields)
	if extracted.Phone == "" {
		return FormSubmissionResponse{}, apperr.Validation("submission has no phone number")
	}

	req := transport.CreateLeadRequest{
		FirstName: extracted.FirstName,
		LastName:  extracted.LastName,
		Email:     extracted.Email,
		Phone:     extracted.Phone,
		Source:    "website",
		Notes:     extracted.Message,
	}
	if req.FirstName == "" {
		req.FirstName = "Unknown"
	}
	if extracted.PropertyType != "" {
		req.PropertyTypes = []string{extracted.PropertyType}
	}
	if extracted.Location != "" {
		req.PreferredLocations = []string{extracted.Location}
	}
	if extracted.PropertyID != "" {
		if propertyID, err := uuid.Parse(extracted.PropertyID); err == nil {
			req.PropertyID = &propertyID
		}
	}

	lead, created, err := s.intake.FindOrCreate(ctx, req)
	if err != nil {
		return FormSubmissionResponse{}, err
	}

	metadata := map[string]interface{}{}
	if sub.SourceDomain != "" {
		metadata["sourceDomain"] = sub.SourceDomain
	}
	if extracted.Message != "" {
		metadata["message"] = extracted.Message
	}
	if _, err := s.intake.AddInteraction(ctx, lead.ID, transport.CreateInteractionRequest{
		InteractionType: "inquiry",
		PropertyID:      req.PropertyID,
		Metadata:        metadata,
	}); err != nil {
		s.log.Error("webhook: failed to record form interaction", "error", err, "leadId", lead.ID)
	}

	raw, _ := json.Marshal(sub.Fields)
	if err := s.repo.RecordSubmission(ctx, lead.ID, "website", sub.SourceDomain, raw); err != nil {
		s.log.Error("webhook: failed to store raw submission", "error", err, "leadId", lead.ID)
	}

	msg := "Lead captured"
	if !created {
		msg = "Existing lead updated"
	}
	return FormSubmissionResponse{
		LeadID:       lead.ID,
		Created:      created,
		IsIncomplete: extracted.IsIncomplete(),
		Message:      msg,
	}, nil
}

// ProcessWhatsAppInbound records a received WhatsApp message against its
// lead, creating the lead on first contact.
func (s *Service) ProcessWhatsAppInbound(ctx context.Context, msg InboundWhatsAppMessage) (FormSubmissionResponse, error) {
	sender := phone.NormalizeE164(senderPhone(msg.From))
	if sender == "" {
		return FormSubmissionResponse{}, apperr.Validation("sender phone could not be parsed")
	}

	firstName, lastName := splitPushname(msg.Pushname)
	lead, created, err := s.intake.FindOrCreate(ctx, transport.CreateLeadRequest{
		FirstName: firstName,
		LastName:  lastName,
		Phone:     sender,
		Source:    "whatsapp",
	})
	if err != nil {
		return FormSubmissionResponse{}, err
	}

	if msg.Message.Text != "" {
		if _, err := s.intake.RecordWhatsAppMessage(ctx, lead.ID, "inbound", msg.Message.Text, msg.Message.ID); err != nil {
			s.log.Error("webhook: failed to record whatsapp message", "error", err, "leadId", lead.ID)
		}
	}

	raw, _ := json.Marshal(msg)
	if err := s.repo.RecordSubmission(ctx, lead.ID, "whatsapp", "", raw); err != nil {
		s.log.Error("webhook: failed to store raw whatsapp payload", "error", err, "leadId", lead.ID)
	}

	return FormSubmissionResponse{LeadID: lead.ID, Created: created, Message: "Message recorded"}, nil
}

// senderPhone strips the JID suffix the gateway appends ("2547...@s.whatsapp.net").
func senderPhone(from string) string {
	if i := strings.IndexByte(from, '@'); i >= 0 {
		from = from[:i]
	}
	if from != "" && !strings.HasPrefix(from, "+") {
		from = "+" + from
	}
	return from
}

func splitPushname(pushname string) (first, last string) {
	pushname = strings.TrimSpace(pushname)
	if pushname == "" {
		return "Unknown", ""
	}
	parts := strings.SplitN(pushname, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
