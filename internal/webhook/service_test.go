package webhook

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"kejani_backend/internal/leads/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

type fakeIntake struct {
	mu           sync.Mutex
	leadsByPhone map[string]uuid.UUID
	created      int
	interactions []transport.CreateInteractionRequest
	whatsapp     []string
}

func newFakeIntake() *fakeIntake {
	return &fakeIntake{leadsByPhone: map[string]uuid.UUID{}}
}

func (f *fakeIntake) FindOrCreate(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.leadsByPhone[req.Phone]; ok {
		return transport.LeadResponse{ID: id, Phone: req.Phone}, false, nil
	}
	id := uuid.New()
	f.leadsByPhone[req.Phone] = id
	f.created++
	return transport.LeadResponse{ID: id, Phone: req.Phone, FirstName: req.FirstName}, true, nil
}

func (f *fakeIntake) AddInteraction(ctx context.Context, leadID uuid.UUID, req transport.CreateInteractionRequest) (transport.InteractionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactions = append(f.interactions, req)
	return transport.InteractionResponse{ID: uuid.New(), LeadID: leadID}, nil
}

func (f *fakeIntake) RecordWhatsAppMessage(ctx context.Context, leadID uuid.UUID, direction, body, waMessageID string) (transport.WhatsAppMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.whatsapp = append(f.whatsapp, direction+":"+body)
	return transport.WhatsAppMessageResponse{ID: uuid.New(), LeadID: leadID}, nil
}

type fakeStore struct {
	mu          sync.Mutex
	submissions []string
}

func (f *fakeStore) RecordSubmission(ctx context.Context, leadID uuid.UUID, channel, sourceDomain string, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, channel)
	return nil
}

func newTestService(intake *fakeIntake) (*Service, *fakeStore) {
	store := &fakeStore{}
	return NewService(store, intake, logger.New("test")), store
}

func TestFormSubmissionCreatesLead(t *testing.T) {
	intake := newFakeIntake()
	svc, store := newTestService(intake)

	resp, err := svc.ProcessFormSubmission(context.Background(), FormSubmission{
		Fields: map[string]string{
			"Name":    "Wanjiku Kamau",
			"Email":   "wanjiku@example.com",
			"Phone":   "0712 345 678",
			"Message": "Interested in a 2BR in Kilimani",
		},
		SourceDomain: "https://listings.example.co.ke",
	})
	if err != nil {
		t.Fatalf("ProcessFormSubmission: %v", err)
	}
	if !resp.Created {
		t.Error("expected a new lead")
	}
	if resp.IsIncomplete {
		t.Error("submission with name and phone should be complete")
	}
	if len(intake.interactions) != 1 {
		t.Fatalf("interactions = %d, want 1", len(intake.interactions))
	}
	if intake.interactions[0].InteractionType != "inquiry" {
		t.Errorf("interaction type = %q, want inquiry", intake.interactions[0].InteractionType)
	}
	if got := intake.interactions[0].Metadata["message"]; got != "Interested in a 2BR in Kilimani" {
		t.Errorf("interaction message metadata = %v", got)
	}
	if len(store.submissions) != 1 || store.submissions[0] != "website" {
		t.Errorf("submissions = %v", store.submissions)
	}
}

func TestRepeatSubmissionReusesLead(t *testing.T) {
	intake := newFakeIntake()
	svc, _ := newTestService(intake)
	ctx := context.Background()

	fields := map[string]string{"name": "Brian Otieno", "phone": "+254722000111"}
	first, err := svc.ProcessFormSubmission(ctx, FormSubmission{Fields: fields})
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	second, err := svc.ProcessFormSubmission(ctx, FormSubmission{Fields: fields})
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}

	if second.Created {
		t.Error("second submission should reuse the lead")
	}
	if first.LeadID != second.LeadID {
		t.Errorf("lead ids differ: %s vs %s", first.LeadID, second.LeadID)
	}
	if intake.created != 1 {
		t.Errorf("created %d leads, want 1", intake.created)
	}
}

func TestFormSubmissionWithoutPhoneIsRejected(t *testing.T) {
	svc, _ := newTestService(newFakeIntake())

	_, err := svc.ProcessFormSubmission(context.Background(), FormSubmission{
		Fields: map[string]string{"name": "Ghost", "email": "ghost@example.com"},
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormSubmissionReferencesProperty(t *testing.T) {
	intake := newFakeIntake()
	svc, _ := newTestService(intake)
	propertyID := uuid.New()

	_, err := svc.ProcessFormSubmission(context.Background(), FormSubmission{
		Fields: map[string]string{
			"name":        "Achieng Odhiambo",
			"phone":       "0733123456",
			"property_id": propertyID.String(),
		},
	})
	if err != nil {
		t.Fatalf("ProcessFormSubmission: %v", err)
	}
	if len(intake.interactions) != 1 {
		t.Fatalf("interactions = %d, want 1", len(intake.interactions))
	}
	if got := intake.interactions[0]; got.InteractionType != "inquiry" || got.PropertyID == nil || *got.PropertyID != propertyID {
		t.Errorf("unexpected interaction: %+v", got)
	}
}

func TestWhatsAppInboundRecordsTranscript(t *testing.T) {
	intake := newFakeIntake()
	svc, store := newTestService(intake)

	msg := InboundWhatsAppMessage{From: "254712345678@s.whatsapp.net", Pushname: "Jane Mwangi"}
	msg.Message.ID = "wamid.1"
	msg.Message.Text = "Is the Westlands apartment still available?"

	resp, err := svc.ProcessWhatsAppInbound(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessWhatsAppInbound: %v", err)
	}
	if !resp.Created {
		t.Error("first contact should create a lead")
	}
	if _, ok := intake.leadsByPhone["+254712345678"]; !ok {
		t.Errorf("lead not keyed by normalized phone: %v", intake.leadsByPhone)
	}
	if len(intake.whatsapp) != 1 || intake.whatsapp[0] != "inbound:Is the Westlands apartment still available?" {
		t.Errorf("transcript = %v", intake.whatsapp)
	}
	if len(store.submissions) != 1 || store.submissions[0] != "whatsapp" {
		t.Errorf("submissions = %v", store.submissions)
	}
}

func TestExtractFieldsSwahiliLabels(t *testing.T) {
	extracted := ExtractFields(map[string]string{
		"jina":          "Amina Hassan",
		"namba_ya_simu": "0710000000",
		"ujumbe":        "Nataka nyumba Mombasa",
	})

	if extracted.FirstName != "Amina" || extracted.LastName != "Hassan" {
		t.Errorf("name = %q %q", extracted.FirstName, extracted.LastName)
	}
	if extracted.Phone != "0710000000" {
		t.Errorf("phone = %q", extracted.Phone)
	}
	if extracted.Message != "Nataka nyumba Mombasa" {
		t.Errorf("message = %q", extracted.Message)
	}
	if extracted.IsIncomplete() {
		t.Error("expected complete submission")
	}
}
