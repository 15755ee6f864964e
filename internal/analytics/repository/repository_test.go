package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func TestRecordViewInsertsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	propertyID := uuid.New()
	mock.ExpectExec("INSERT INTO property_views").
		WithArgs(propertyID, (*uuid.UUID)(nil), "203.0.113.9", "curl/8.0").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.RecordView(context.Background(), RecordViewParams{
		PropertyID: propertyID,
		IPAddress:  "203.0.113.9",
		UserAgent:  "curl/8.0",
	})
	if err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAgentLeadCountsScansAggregates(t *testing.T) {
	repo, mock := newMockRepo(t)

	agentID := uuid.New()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(agentID).
		WillReturnRows(pgxmock.NewRows([]string{"total", "hot", "converted"}).
			AddRow(int64(12), int64(3), int64(2)))

	total, hot, converted, err := repo.AgentLeadCounts(context.Background(), agentID)
	if err != nil {
		t.Fatalf("AgentLeadCounts: %v", err)
	}
	if total != 12 || hot != 3 || converted != 2 {
		t.Fatalf("got %d/%d/%d, want 12/3/2", total, hot, converted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordConversionIgnoresDuplicates(t *testing.T) {
	repo, mock := newMockRepo(t)

	leadID := uuid.New()
	mock.ExpectExec("INSERT INTO lead_conversions").
		WithArgs(leadID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	if err := repo.RecordConversion(context.Background(), leadID); err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPropertyAgentIDUnknownProperty(t *testing.T) {
	repo, mock := newMockRepo(t)

	propertyID := uuid.New()
	mock.ExpectQuery("SELECT agent_id FROM properties").
		WithArgs(propertyID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.PropertyAgentID(context.Background(), propertyID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
