package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"kejani_backend/platform/logger"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		status string
		want   int
	}{
		{
			name:   "new lead with no engagement",
			counts: Counts{},
			status: "new",
			want:   0,
		},
		{
			name:   "mixed engagement with qualified bonus",
			counts: Counts{Interactions: 3, WhatsAppMessages: 2, PropertyViewings: 1},
			status: "qualified",
			want:   100,
		},
		{
			name:   "negotiation status alone",
			counts: Counts{},
			status: "negotiation",
			want:   200,
		},
		{
			name:   "closed status carries no bonus",
			counts: Counts{Interactions: 10},
			status: "closed_lost",
			want:   50,
		},
		{
			name:   "closed_won carries no bonus either",
			counts: Counts{WhatsAppMessages: 3},
			status: "closed_won",
			want:   30,
		},
		{
			name:   "proposal bonus",
			counts: Counts{Interactions: 1},
			status: "proposal",
			want:   105,
		},
		{
			name:   "viewings weigh heaviest",
			counts: Counts{PropertyViewings: 4},
			status: "contacted",
			want:   60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.counts, tt.status)
			if got != tt.want {
				t.Errorf("Score(%+v, %q) = %d, want %d", tt.counts, tt.status, got, tt.want)
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	counts := Counts{Interactions: 7, WhatsAppMessages: 3, PropertyViewings: 2}
	first := Score(counts, "qualified")
	for i := 0; i < 5; i++ {
		if got := Score(counts, "qualified"); got != first {
			t.Fatalf("Score not deterministic: got %d then %d", first, got)
		}
	}
}

func TestIsHot(t *testing.T) {
	tests := []struct {
		score int
		want  bool
	}{
		{0, false},
		{49, false},
		{50, false}, // threshold itself is not hot
		{51, true},
		{200, true},
	}

	for _, tt := range tests {
		if got := IsHot(tt.score); got != tt.want {
			t.Errorf("IsHot(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

type fakeEngagement struct {
	counts Counts
	status string
	err    error
}

func (f *fakeEngagement) CountEngagement(ctx context.Context, leadID uuid.UUID) (Counts, string, error) {
	return f.counts, f.status, f.err
}

type fakeScoreWriter struct {
	scores map[uuid.UUID]int
	err    error
	writes int
}

func (f *fakeScoreWriter) SetScore(ctx context.Context, leadID uuid.UUID, score int) error {
	if f.err != nil {
		return f.err
	}
	if f.scores == nil {
		f.scores = map[uuid.UUID]int{}
	}
	f.scores[leadID] = score
	f.writes++
	return nil
}

func TestRecompute(t *testing.T) {
	leadID := uuid.New()
	reader := &fakeEngagement{counts: Counts{Interactions: 3, WhatsAppMessages: 2, PropertyViewings: 1}, status: "qualified"}
	writer := &fakeScoreWriter{}
	svc := NewService(reader, writer, logger.New("test"))

	score, err := svc.Recompute(context.Background(), leadID)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if score != 100 {
		t.Errorf("score = %d, want 100", score)
	}
	if writer.scores[leadID] != 100 {
		t.Errorf("persisted score = %d, want 100", writer.scores[leadID])
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	leadID := uuid.New()
	reader := &fakeEngagement{counts: Counts{Interactions: 2}, status: "contacted"}
	writer := &fakeScoreWriter{}
	svc := NewService(reader, writer, logger.New("test"))

	first, err := svc.Recompute(context.Background(), leadID)
	if err != nil {
		t.Fatalf("first Recompute: %v", err)
	}
	second, err := svc.Recompute(context.Background(), leadID)
	if err != nil {
		t.Fatalf("second Recompute: %v", err)
	}
	if first != second {
		t.Errorf("repeated recompute changed score: %d then %d", first, second)
	}
	if writer.scores[leadID] != first {
		t.Errorf("persisted score = %d, want %d", writer.scores[leadID], first)
	}
}

func TestRecomputeReadError(t *testing.T) {
	reader := &fakeEngagement{err: errors.New("connection refused")}
	writer := &fakeScoreWriter{}
	svc := NewService(reader, writer, logger.New("test"))

	if _, err := svc.Recompute(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error from failing reader")
	}
	if writer.writes != 0 {
		t.Errorf("score written despite read failure")
	}
}

func TestTryRecomputeSwallowsFailure(t *testing.T) {
	reader := &fakeEngagement{err: errors.New("connection refused")}
	writer := &fakeScoreWriter{}
	svc := NewService(reader, writer, logger.New("test"))

	// Must not panic and must not propagate: the triggering write already
	// succeeded and a stale score is the accepted outcome.
	svc.TryRecompute(context.Background(), uuid.New())

	if writer.writes != 0 {
		t.Errorf("unexpected score write")
	}
}
