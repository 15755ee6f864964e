package assignment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeLoadLister struct {
	loads []AgentLoad
	err   error
}

func (f *fakeLoadLister) ListAgentLoads(ctx context.Context) ([]AgentLoad, error) {
	return f.loads, f.err
}

func TestPickAgentLeastLoaded(t *testing.T) {
	agentA := uuid.New()
	agentB := uuid.New()
	agentC := uuid.New()

	svc := NewService(&fakeLoadLister{loads: []AgentLoad{
		{AgentID: agentB, OpenLeads: 0},
		{AgentID: agentC, OpenLeads: 1},
		{AgentID: agentA, OpenLeads: 2},
	}})

	picked, err := svc.PickAgent(context.Background())
	if err != nil {
		t.Fatalf("PickAgent: %v", err)
	}
	if picked == nil {
		t.Fatal("expected an agent, got nil")
	}
	if *picked != agentB {
		t.Errorf("picked %s, want agent with zero open leads %s", picked, agentB)
	}
}

func TestPickAgentNoAgents(t *testing.T) {
	svc := NewService(&fakeLoadLister{loads: []AgentLoad{}})

	picked, err := svc.PickAgent(context.Background())
	if err != nil {
		t.Fatalf("PickAgent with no agents must succeed, got %v", err)
	}
	if picked != nil {
		t.Errorf("expected nil agent, got %s", picked)
	}
}

func TestPickAgentTieKeepsListerOrder(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	svc := NewService(&fakeLoadLister{loads: []AgentLoad{
		{AgentID: first, OpenLeads: 3},
		{AgentID: second, OpenLeads: 3},
	}})

	for i := 0; i < 10; i++ {
		picked, err := svc.PickAgent(context.Background())
		if err != nil {
			t.Fatalf("PickAgent: %v", err)
		}
		if picked == nil || *picked != first {
			t.Fatalf("tie must resolve to the lister's first candidate %s, got %v", first, picked)
		}
	}
}

func TestPickAgentListerError(t *testing.T) {
	svc := NewService(&fakeLoadLister{err: errors.New("connection refused")})

	if _, err := svc.PickAgent(context.Background()); err == nil {
		t.Fatal("expected error from failing lister")
	}
}
