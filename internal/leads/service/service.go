package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/leads/repository"
	"kejani_backend/internal/leads/scoring"
	"kejani_backend/internal/leads/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/phone"
	"kejani_backend/platform/sanitize"
)

// LeadRepository is the persistence surface this service consumes.
type LeadRepository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetByPhoneOrEmail(ctx context.Context, phoneNumber, email string) (repository.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (string, error)
	Assign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) error

	CreateInteraction(ctx context.Context, params repository.CreateInteractionParams) (repository.Interaction, error)
	ListInteractions(ctx context.Context, leadID uuid.UUID) ([]repository.Interaction, error)
	CreateActivity(ctx context.Context, params repository.CreateActivityParams) (repository.Activity, error)
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
	CreateWhatsAppMessage(ctx context.Context, params repository.CreateWhatsAppMessageParams) (repository.WhatsAppMessage, error)
	ListWhatsAppMessages(ctx context.Context, leadID uuid.UUID) ([]repository.WhatsAppMessage, error)

	CreateTask(ctx context.Context, params repository.CreateTaskParams) (repository.Task, error)
	ListTasks(ctx context.Context, leadID uuid.UUID) ([]repository.Task, error)
	CompleteTask(ctx context.Context, taskID uuid.UUID) (repository.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	StatusDistribution(ctx context.Context, agentID *uuid.UUID) ([]repository.StatusCount, error)
	PipelineStats(ctx context.Context, hotThreshold int) (repository.PipelineStats, error)
}

// Scorer recomputes lead scores. TryRecompute must never return: score
// maintenance rides along with other writes and cannot fail them.
type Scorer interface {
	Recompute(ctx context.Context, leadID uuid.UUID) (int, error)
	TryRecompute(ctx context.Context, leadID uuid.UUID)
}

// Assigner picks an agent for a new lead, or nil when none are eligible.
type Assigner interface {
	PickAgent(ctx context.Context) (*uuid.UUID, error)
}

type Service struct {
	repo     LeadRepository
	scorer   Scorer
	assigner Assigner
	eventBus events.Bus
	logger   *logger.Logger
}

func New(repo LeadRepository, scorer Scorer, assigner Assigner, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		scorer:   scorer,
		assigner: assigner,
		eventBus: bus,
		logger:   log,
	}
}

// Create registers a new lead. When no agent is given, the least-loaded
// eligible agent is picked automatically; if none exists the lead stays
// unassigned and assignment is retried on the next manual pass.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	normalized := phone.NormalizeE164(req.Phone)
	if normalized == "" {
		return transport.LeadResponse{}, apperr.Validation("phone number is required")
	}

	agentID := req.AgentID
	automatic := false
	if agentID == nil {
		picked, err := s.assigner.PickAgent(ctx)
		if err != nil {
			return transport.LeadResponse{}, apperr.Internal("failed to pick agent", err)
		}
		agentID = picked
		automatic = picked != nil
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		FirstName:          sanitize.Text(req.FirstName),
		LastName:           sanitize.Text(req.LastName),
		Email:              req.Email,
		Phone:              normalized,
		Source:             req.Source,
		Priority:           req.Priority,
		BudgetMinCents:     req.BudgetMinCents,
		BudgetMaxCents:     req.BudgetMaxCents,
		PreferredLocations: req.PreferredLocations,
		PropertyTypes:      req.PropertyTypes,
		PropertyID:         req.PropertyID,
		AgentID:            agentID,
		Notes:              sanitize.Text(req.Notes),
	})
	if err != nil {
		return transport.LeadResponse{}, apperr.Internal("failed to create lead", err)
	}

	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		AgentID:    lead.AgentID,
		PropertyID: lead.PropertyID,
		Source:     lead.Source,
		Email:      lead.Email,
		Phone:      lead.Phone,
	})
	if agentID != nil {
		s.eventBus.Publish(ctx, events.LeadAssigned{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			NewAgent:  *agentID,
			Automatic: automatic,
		})
	}

	return toLeadResponse(lead), nil
}

// FindOrCreate locates an existing lead by phone or email and falls back to
// creating a new one. Inbound capture channels (website forms, WhatsApp)
// funnel through here so repeated contact from the same person never spawns
// duplicate leads.
func (s *Service) FindOrCreate(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, bool, error) {
	normalized := phone.NormalizeE164(req.Phone)
	existing, err := s.repo.GetByPhoneOrEmail(ctx, normalized, req.Email)
	if err == nil {
		return toLeadResponse(existing), false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, false, apperr.Internal("failed to look up lead", err)
	}

	created, err := s.Create(ctx, req)
	if err != nil {
		return transport.LeadResponse{}, false, err
	}
	return created, true, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Internal("failed to load lead", err)
	}
	return toLeadResponse(lead), nil
}

func (s *Service) List(ctx context.Context, query transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	params := repository.ListParams{
		Search: query.Search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if query.Status != "" {
		params.Status = &query.Status
	}
	if query.Priority != "" {
		params.Priority = &query.Priority
	}
	if query.Source != "" {
		params.Source = &query.Source
	}
	if query.AgentID != "" {
		agentID, err := uuid.Parse(query.AgentID)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation("invalid agent id")
		}
		params.AgentID = &agentID
	}
	if query.Hot {
		minScore := scoring.HotThreshold() + 1
		params.MinScore = &minScore
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, apperr.Internal("failed to list leads", err)
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}
	return transport.LeadListResponse{Leads: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateLeadParams{
		Email:              req.Email,
		Source:             req.Source,
		Priority:           req.Priority,
		PreferredLocations: req.PreferredLocations,
		PropertyTypes:      req.PropertyTypes,
	}
	if req.FirstName != nil {
		clean := sanitize.Text(*req.FirstName)
		params.FirstName = &clean
	}
	if req.LastName != nil {
		clean := sanitize.Text(*req.LastName)
		params.LastName = &clean
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		if normalized == "" {
			return transport.LeadResponse{}, apperr.Validation("phone number cannot be empty")
		}
		params.Phone = &normalized
	}
	if req.Notes != nil {
		clean := sanitize.Text(*req.Notes)
		params.Notes = &clean
	}
	if req.BudgetMinCents != nil {
		params.BudgetMinCents = req.BudgetMinCents
		params.BudgetMinSet = true
	}
	if req.BudgetMaxCents != nil {
		params.BudgetMaxCents = req.BudgetMaxCents
		params.BudgetMaxSet = true
	}
	if req.PropertyID != nil {
		params.PropertyID = req.PropertyID
		params.PropertyIDSet = true
	}

	if _, err := s.repo.Update(ctx, id, params); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Internal("failed to update lead", err)
	}

	s.scorer.TryRecompute(ctx, id)

	return s.Get(ctx, id)
}

// UpdateStatus moves the lead through the pipeline. The status write always
// succeeds or fails on its own; the score recompute that follows is
// best-effort and a failure there leaves a stale score behind.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (transport.LeadResponse, error) {
	oldStatus, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Internal("failed to update lead status", err)
	}

	s.scorer.TryRecompute(ctx, id)

	if oldStatus != status {
		s.eventBus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
			OldStatus: oldStatus,
			NewStatus: status,
		})
	}

	return s.Get(ctx, id)
}

// Assign sets the lead's owning agent explicitly. A nil agent unassigns.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Internal("failed to load lead", err)
	}

	if err := s.repo.Assign(ctx, id, agentID); err != nil {
		return transport.LeadResponse{}, apperr.Internal("failed to assign lead", err)
	}

	if agentID != nil {
		s.eventBus.Publish(ctx, events.LeadAssigned{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        id,
			PreviousAgent: lead.AgentID,
			NewAgent:      *agentID,
		})
	}

	return s.Get(ctx, id)
}

// AutoAssign runs the assignment policy for an unassigned lead. Returning a
// nil agent means no agent was eligible; the lead stays unassigned and that
// is a successful outcome.
func (s *Service) AutoAssign(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	agentID, err := s.assigner.PickAgent(ctx)
	if err != nil {
		return transport.LeadResponse{}, apperr.Internal("failed to pick agent", err)
	}
	if agentID == nil {
		return s.Get(ctx, id)
	}
	return s.Assign(ctx, id, agentID)
}

// AddInteraction appends a passive engagement event to the lead's history.
// Every interaction feeds the score, so a recompute follows the write.
func (s *Service) AddInteraction(ctx context.Context, leadID uuid.UUID, req transport.CreateInteractionRequest) (transport.InteractionResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.InteractionResponse{}, apperr.NotFound("lead not found")
		}
		return transport.InteractionResponse{}, apperr.Internal("failed to load lead", err)
	}

	occurredAt := time.Time{}
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	interaction, err := s.repo.CreateInteraction(ctx, repository.CreateInteractionParams{
		LeadID:          leadID,
		InteractionType: req.InteractionType,
		PropertyID:      req.PropertyID,
		Metadata:        req.Metadata,
		OccurredAt:      occurredAt,
	})
	if err != nil {
		return transport.InteractionResponse{}, apperr.Internal("failed to record interaction", err)
	}

	s.scorer.TryRecompute(ctx, leadID)

	return toInteractionResponse(interaction), nil
}

func (s *Service) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]transport.InteractionResponse, error) {
	items, err := s.repo.ListInteractions(ctx, leadID)
	if err != nil {
		return nil, apperr.Internal("failed to list interactions", err)
	}
	out := make([]transport.InteractionResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toInteractionResponse(it))
	}
	return out, nil
}

// AddActivity logs an agent's CRM action against the lead. Only
// property_viewing activities move the score, but the recompute is cheap
// enough to run unconditionally.
func (s *Service) AddActivity(ctx context.Context, leadID uuid.UUID, agentID *uuid.UUID, req transport.CreateActivityRequest) (transport.ActivityResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ActivityResponse{}, apperr.NotFound("lead not found")
		}
		return transport.ActivityResponse{}, apperr.Internal("failed to load lead", err)
	}

	activity, err := s.repo.CreateActivity(ctx, repository.CreateActivityParams{
		LeadID:       leadID,
		ActivityType: req.ActivityType,
		AgentID:      agentID,
		Subject:      sanitize.Text(req.Subject),
		Notes:        sanitize.Text(req.Notes),
		ScheduledAt:  req.ScheduledAt,
		CompletedAt:  req.CompletedAt,
	})
	if err != nil {
		return transport.ActivityResponse{}, apperr.Internal("failed to record activity", err)
	}

	s.scorer.TryRecompute(ctx, leadID)

	return toActivityResponse(activity), nil
}

func (s *Service) ListActivities(ctx context.Context, leadID uuid.UUID) ([]transport.ActivityResponse, error) {
	items, err := s.repo.ListActivities(ctx, leadID)
	if err != nil {
		return nil, apperr.Internal("failed to list activities", err)
	}
	out := make([]transport.ActivityResponse, 0, len(items))
	for _, act := range items {
		out = append(out, toActivityResponse(act))
	}
	return out, nil
}

// RecordWhatsAppMessage stores a WhatsApp message against the lead and
// recomputes its score. Both inbound and outbound traffic counts.
func (s *Service) RecordWhatsAppMessage(ctx context.Context, leadID uuid.UUID, direction, body, waMessageID string) (transport.WhatsAppMessageResponse, error) {
	if direction != "inbound" && direction != "outbound" {
		return transport.WhatsAppMessageResponse{}, apperr.Validation("direction must be inbound or outbound")
	}

	msg, err := s.repo.CreateWhatsAppMessage(ctx, repository.CreateWhatsAppMessageParams{
		LeadID:      leadID,
		Direction:   direction,
		MessageBody: sanitize.Text(body),
		WaMessageID: waMessageID,
	})
	if err != nil {
		return transport.WhatsAppMessageResponse{}, apperr.Internal("failed to record whatsapp message", err)
	}

	s.scorer.TryRecompute(ctx, leadID)

	return transport.WhatsAppMessageResponse{
		ID:          msg.ID,
		LeadID:      msg.LeadID,
		Direction:   msg.Direction,
		MessageBody: msg.MessageBody,
		Status:      msg.Status,
		SentAt:      msg.SentAt,
	}, nil
}

func (s *Service) ListWhatsAppMessages(ctx context.Context, leadID uuid.UUID) ([]transport.WhatsAppMessageResponse, error) {
	items, err := s.repo.ListWhatsAppMessages(ctx, leadID)
	if err != nil {
		return nil, apperr.Internal("failed to list whatsapp messages", err)
	}
	out := make([]transport.WhatsAppMessageResponse, 0, len(items))
	for _, msg := range items {
		out = append(out, transport.WhatsAppMessageResponse{
			ID:          msg.ID,
			LeadID:      msg.LeadID,
			Direction:   msg.Direction,
			MessageBody: msg.MessageBody,
			Status:      msg.Status,
			SentAt:      msg.SentAt,
		})
	}
	return out, nil
}

func (s *Service) CreateTask(ctx context.Context, leadID uuid.UUID, agentID *uuid.UUID, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.TaskResponse{}, apperr.NotFound("lead not found")
		}
		return transport.TaskResponse{}, apperr.Internal("failed to load lead", err)
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	task, err := s.repo.CreateTask(ctx, repository.CreateTaskParams{
		LeadID:      leadID,
		AgentID:     agentID,
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Text(req.Description),
		Priority:    priority,
		DueAt:       req.DueAt,
	})
	if err != nil {
		return transport.TaskResponse{}, apperr.Internal("failed to create task", err)
	}
	return toTaskResponse(task), nil
}

func (s *Service) ListTasks(ctx context.Context, leadID uuid.UUID) ([]transport.TaskResponse, error) {
	tasks, err := s.repo.ListTasks(ctx, leadID)
	if err != nil {
		return nil, apperr.Internal("failed to list tasks", err)
	}
	out := make([]transport.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	return out, nil
}

func (s *Service) CompleteTask(ctx context.Context, taskID uuid.UUID) (transport.TaskResponse, error) {
	task, err := s.repo.CompleteTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.TaskResponse{}, apperr.NotFound("task not found")
		}
		return transport.TaskResponse{}, apperr.Internal("failed to complete task", err)
	}
	return toTaskResponse(task), nil
}

func (s *Service) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("task not found")
		}
		return apperr.Internal("failed to delete task", err)
	}
	return nil
}

func (s *Service) PipelineStats(ctx context.Context, agentID *uuid.UUID) (transport.PipelineStatsResponse, error) {
	stats, err := s.repo.PipelineStats(ctx, scoring.HotThreshold())
	if err != nil {
		return transport.PipelineStatsResponse{}, apperr.Internal("failed to load pipeline stats", err)
	}

	distribution, err := s.repo.StatusDistribution(ctx, agentID)
	if err != nil {
		return transport.PipelineStatsResponse{}, apperr.Internal("failed to load status distribution", err)
	}

	byStatus := make([]transport.StatusCountResponse, 0, len(distribution))
	for _, sc := range distribution {
		byStatus = append(byStatus, transport.StatusCountResponse{Status: sc.Status, Count: sc.Count})
	}

	return transport.PipelineStatsResponse{
		TotalLeads:      stats.TotalLeads,
		UnassignedLeads: stats.UnassignedLeads,
		HotLeads:        stats.HotLeads,
		AverageScore:    stats.AverageScore,
		ByStatus:        byStatus,
	}, nil
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                 lead.ID,
		FirstName:          lead.FirstName,
		LastName:           lead.LastName,
		Email:              lead.Email,
		Phone:              lead.Phone,
		Source:             lead.Source,
		Status:             lead.Status,
		Priority:           lead.Priority,
		Score:              lead.Score,
		IsHot:              scoring.IsHot(lead.Score),
		BudgetMinCents:     lead.BudgetMinCents,
		BudgetMaxCents:     lead.BudgetMaxCents,
		PreferredLocations: lead.PreferredLocations,
		PropertyTypes:      lead.PropertyTypes,
		PropertyID:         lead.PropertyID,
		AgentID:            lead.AgentID,
		UserID:             lead.UserID,
		Notes:              lead.Notes,
		CreatedAt:          lead.CreatedAt,
		UpdatedAt:          lead.UpdatedAt,
	}
}

func toInteractionResponse(it repository.Interaction) transport.InteractionResponse {
	return transport.InteractionResponse{
		ID:              it.ID,
		LeadID:          it.LeadID,
		InteractionType: it.InteractionType,
		PropertyID:      it.PropertyID,
		Metadata:        it.Metadata,
		OccurredAt:      it.OccurredAt,
		CreatedAt:       it.CreatedAt,
	}
}

func toActivityResponse(act repository.Activity) transport.ActivityResponse {
	return transport.ActivityResponse{
		ID:           act.ID,
		LeadID:       act.LeadID,
		ActivityType: act.ActivityType,
		AgentID:      act.AgentID,
		Subject:      act.Subject,
		Notes:        act.Notes,
		ScheduledAt:  act.ScheduledAt,
		CompletedAt:  act.CompletedAt,
		CreatedAt:    act.CreatedAt,
	}
}

func toTaskResponse(task repository.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:          task.ID,
		LeadID:      task.LeadID,
		AgentID:     task.AgentID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		DueAt:       task.DueAt,
		Completed:   task.Completed,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
	}
}
