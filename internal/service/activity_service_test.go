package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksContactDetails(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		Action:     "Student.Updated",
		EntityType: "Student",
		EntityKey:  "2024-10-0001",
		Metadata: map[string]interface{}{
			"email": "student@example.com",
			"phone": "081234567890",
			"field": "status",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["phone"])
	require.Equal(t, "status", entry.Metadata["field"])
	require.Equal(t, "system", entry.ActorID)
	require.Equal(t, "student.updated", entry.Action)
	require.Equal(t, "student", entry.EntityType)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "student"})
	require.Error(t, err)
	_, err = svc.Record(context.Background(), ActivityEntry{Action: "student.created"})
	require.Error(t, err)
}

func TestActivityServiceList(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())
	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{ActorID: "admin", Action: "course.created", EntityType: "course", EntityKey: "1"})
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.Equal(t, int64(3), result.Pagination.TotalItems)
	require.Equal(t, 2, result.Pagination.TotalPages)
	require.Equal(t, "admin", result.Items[0].ActorID)
}

func TestNewIdentifierAllocatorRejectsUnknownStrategy(t *testing.T) {
	_, err := NewIdentifierAllocator("random", nil, nil, testLogger())
	require.Error(t, err)

	_, err = NewIdentifierAllocator("counter", nil, nil, testLogger())
	require.Error(t, err)
}

func TestNewIdentifierAllocatorScanRequiresSequences(t *testing.T) {
	db := setupServiceDB(t)
	students := repository.NewStudentRepository(db)

	_, err := NewIdentifierAllocator(StrategyScan, students, nil, testLogger())
	require.Error(t, err)

	allocator, err := NewIdentifierAllocator(" SCAN ", students, repository.NewNIMSequenceRepository(db), testLogger())
	require.NoError(t, err)
	require.Equal(t, StrategyScan, allocator.Strategy())
}
