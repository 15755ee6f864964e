package transport

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

func TestInteractionTypesArePassiveEvents(t *testing.T) {
	for _, typ := range []string{"page_view", "property_click", "search", "inquiry", "download", "callback"} {
		if err := binding.Validator.ValidateStruct(&CreateInteractionRequest{InteractionType: typ}); err != nil {
			t.Errorf("interaction type %q rejected: %v", typ, err)
		}
	}

	// Agent actions belong on activities, not interactions.
	for _, typ := range []string{"call", "email", "meeting", "whatsapp", "note", "site_visit", ""} {
		if err := binding.Validator.ValidateStruct(&CreateInteractionRequest{InteractionType: typ}); err == nil {
			t.Errorf("interaction type %q accepted, want rejection", typ)
		}
	}
}

func TestActivityTypesAreAgentActions(t *testing.T) {
	for _, typ := range []string{"call", "email", "meeting", "property_viewing", "whatsapp", "note"} {
		if err := binding.Validator.ValidateStruct(&CreateActivityRequest{ActivityType: typ}); err != nil {
			t.Errorf("activity type %q rejected: %v", typ, err)
		}
	}

	for _, typ := range []string{"page_view", "search", "inquiry", "download", ""} {
		if err := binding.Validator.ValidateStruct(&CreateActivityRequest{ActivityType: typ}); err == nil {
			t.Errorf("activity type %q accepted, want rejection", typ)
		}
	}
}

func TestTaskPriorityValues(t *testing.T) {
	for _, priority := range []string{"", "low", "medium", "high", "urgent"} {
		if err := binding.Validator.ValidateStruct(&CreateTaskRequest{Title: "Call back Wanjiku", Priority: priority}); err != nil {
			t.Errorf("priority %q rejected: %v", priority, err)
		}
	}

	if err := binding.Validator.ValidateStruct(&CreateTaskRequest{Title: "Call back Wanjiku", Priority: "asap"}); err == nil {
		t.Error("priority \"asap\" accepted, want rejection")
	}
}
