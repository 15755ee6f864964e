// Package assignment picks the owning agent for incoming leads.
package assignment

import (
	"context"

	"github.com/google/uuid"
)

// AgentLoad is an agent candidate with its current open-lead count.
type AgentLoad struct {
	AgentID   uuid.UUID
	OpenLeads int
}

// LoadLister returns assignment candidates ordered least loaded first, with a
// stable ordering among equally loaded agents.
type LoadLister interface {
	ListAgentLoads(ctx context.Context) ([]AgentLoad, error)
}

type Service struct {
	loads LoadLister
}

func NewService(loads LoadLister) *Service {
	return &Service{loads: loads}
}

// PickAgent selects the least-loaded active verified agent. With no eligible
// agents it returns (nil, nil): an unassigned lead is a valid outcome, not an
// error. Ties resolve by the lister's ordering (signup time, then id), so the
// choice is deterministic.
func (s *Service) PickAgent(ctx context.Context) (*uuid.UUID, error) {
	loads, err := s.loads.ListAgentLoads(ctx)
	if err != nil {
		return nil, err
	}
	if len(loads) == 0 {
		return nil, nil
	}

	best := loads[0]
	for _, candidate := range loads[1:] {
		if candidate.OpenLeads < best.OpenLeads {
			best = candidate
		}
	}

	agentID := best.AgentID
	return &agentID, nil
}
