package repository

import (
	"context"

	"github.com/google/uuid"
)

// AgentLoad is an agent with its count of open leads. Open means any status
// except closed_won and closed_lost.
type AgentLoad struct {
	AgentID   uuid.UUID
	OpenLeads int
}

// ListAgentLoads returns every active verified agent with its open-lead
// count, least loaded first. Ties break on agent signup time, then id, so
// repeated calls over the same data always yield the same ordering.
func (r *Repository) ListAgentLoads(ctx context.Context) ([]AgentLoad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.user_id, count(l.id) FILTER (WHERE l.status NOT IN ('closed_won', 'closed_lost'))
		FROM agent_profiles p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN leads l ON l.agent_id = p.user_id
		WHERE u.is_active AND p.is_verified
		GROUP BY p.user_id, p.created_at
		ORDER BY 2 ASC, p.created_at ASC, p.user_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := make([]AgentLoad, 0)
	for rows.Next() {
		var load AgentLoad
		if err := rows.Scan(&load.AgentID, &load.OpenLeads); err != nil {
			return nil, err
		}
		loads = append(loads, load)
	}
	return loads, rows.Err()
}

type StatusCount struct {
	Status string
	Count  int
}

// StatusDistribution powers the pipeline funnel view.
func (r *Repository) StatusDistribution(ctx context.Context, agentID *uuid.UUID) ([]StatusCount, error) {
	query := `SELECT status, count(*) FROM leads GROUP BY status ORDER BY count(*) DESC`
	args := []interface{}{}
	if agentID != nil {
		query = `SELECT status, count(*) FROM leads WHERE agent_id = $1 GROUP BY status ORDER BY count(*) DESC`
		args = append(args, *agentID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]StatusCount, 0)
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

type PipelineStats struct {
	TotalLeads      int
	UnassignedLeads int
	HotLeads        int
	AverageScore    float64
}

// PipelineStats summarizes the lead pipeline for the management dashboard.
// Hot means score strictly above the threshold passed in, which belongs to
// the scoring package, not here.
func (r *Repository) PipelineStats(ctx context.Context, hotThreshold int) (PipelineStats, error) {
	var stats PipelineStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE agent_id IS NULL),
			count(*) FILTER (WHERE score > $1),
			COALESCE(avg(score), 0)
		FROM leads
	`, hotThreshold).Scan(&stats.TotalLeads, &stats.UnassignedLeads, &stats.HotLeads, &stats.AverageScore)
	return stats, err
}
