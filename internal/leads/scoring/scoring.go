// Package scoring computes lead engagement scores. A score is always a full
// recomputation over the lead's engagement history; nothing in this package
// increments a stored value.
package scoring

import (
	"context"

	"github.com/google/uuid"

	"kejani_backend/platform/logger"
)

const (
	pointsPerInteraction     = 5
	pointsPerWhatsAppMessage = 10
	pointsPerPropertyViewing = 15

	// Hotness is strict: a lead at exactly the threshold is not hot.
	hotThreshold = 50
)

// statusBonus rewards pipeline progress. Statuses past negotiation carry no
// bonus: a closed lead's score reflects engagement only.
var statusBonus = map[string]int{
	"qualified":   50,
	"proposal":    100,
	"negotiation": 200,
}

// Counts is the engagement snapshot a score derives from.
type Counts struct {
	Interactions     int
	WhatsAppMessages int
	PropertyViewings int
}

// Score computes the lead score from scratch. Deterministic: same counts and
// status always produce the same score.
func Score(counts Counts, status string) int {
	score := counts.Interactions*pointsPerInteraction +
		counts.WhatsAppMessages*pointsPerWhatsAppMessage +
		counts.PropertyViewings*pointsPerPropertyViewing
	return score + statusBonus[status]
}

// IsHot reports whether a score marks the lead as hot. Hotness is derived on
// read and never stored.
func IsHot(score int) bool {
	return score > hotThreshold
}

// HotThreshold exposes the cutoff for queries that filter on the stored score.
func HotThreshold() int {
	return hotThreshold
}

// EngagementReader supplies the snapshot a recompute needs.
type EngagementReader interface {
	CountEngagement(ctx context.Context, leadID uuid.UUID) (Counts, string, error)
}

// ScoreWriter persists a recomputed score as a single-field write.
type ScoreWriter interface {
	SetScore(ctx context.Context, leadID uuid.UUID, score int) error
}

type Service struct {
	reader EngagementReader
	writer ScoreWriter
	logger *logger.Logger
}

func NewService(reader EngagementReader, writer ScoreWriter, log *logger.Logger) *Service {
	return &Service{reader: reader, writer: writer, logger: log}
}

// Recompute reads the lead's engagement counts and status, computes the score
// from scratch, and persists it. Idempotent: recomputing with no intervening
// engagement change writes the same score.
func (s *Service) Recompute(ctx context.Context, leadID uuid.UUID) (int, error) {
	counts, status, err := s.reader.CountEngagement(ctx, leadID)
	if err != nil {
		return 0, err
	}

	score := Score(counts, status)
	if err := s.writer.SetScore(ctx, leadID, score); err != nil {
		return 0, err
	}
	return score, nil
}

// TryRecompute recomputes and swallows any failure after logging it. Score
// updates ride along with other writes and must never fail them; a failed
// recompute leaves the previous score in place until the next trigger.
func (s *Service) TryRecompute(ctx context.Context, leadID uuid.UUID) {
	if _, err := s.Recompute(ctx, leadID); err != nil {
		s.logger.ScoreRecomputeFailed(leadID.String(), err)
	}
}
