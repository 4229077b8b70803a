package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/repository"
)

func setupReportService(t *testing.T, cache *redis.Client) (*gorm.DB, ReportService) {
	t.Helper()

	db := setupServiceDB(t, "report_service")
	users := repository.NewUserRepository(db)
	activities := repository.NewActivityRepository(db)

	svc := NewReportService(users, activities, cache, time.Minute, testValidator(), testLogger())
	if concrete, ok := svc.(*reportService); ok {
		concrete.now = func() time.Time { return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC) }
	}

	return db, svc
}

func TestReportAggregatesPerStudent(t *testing.T) {
	db, svc := setupReportService(t, nil)
	admin := createUser(t, db, "root", models.RoleSuperadmin, "", "")
	alice := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	bob := createUser(t, db, "bob", models.RoleStudent, "CS", "B")
	createUser(t, db, "carol", models.RoleStudent, "EE", "A")

	createActivity(t, db, alice.ID, models.ActivityStatusApproved, 15)
	createActivity(t, db, alice.ID, models.ActivityStatusApproved, 10)
	createActivity(t, db, alice.ID, models.ActivityStatusPending, 0)
	createActivity(t, db, bob.ID, models.ActivityStatusRejected, 0)

	report, err := svc.Generate(context.Background(), identityFor(admin), dto.ReportFilter{Department: "CS"})
	require.NoError(t, err)
	require.Equal(t, 2, report.Count)
	require.False(t, report.CacheHit)

	// Rows follow the directory order: name, then ID.
	require.Equal(t, "alice", report.Rows[0].Student.Name)
	require.Equal(t, 3, report.Rows[0].TotalActivities)
	require.Equal(t, 2, report.Rows[0].ApprovedActivities)
	require.Equal(t, 1, report.Rows[0].PendingActivities)
	require.Equal(t, 25, report.Rows[0].TotalPoints)

	require.Equal(t, "bob", report.Rows[1].Student.Name)
	require.Equal(t, 1, report.Rows[1].RejectedActivities)
	require.Equal(t, 0, report.Rows[1].TotalPoints)
}

func TestReportIncludesStudentsWithoutActivities(t *testing.T) {
	db, svc := setupReportService(t, nil)
	admin := createUser(t, db, "root", models.RoleSuperadmin, "", "")
	createUser(t, db, "alice", models.RoleStudent, "CS", "A")

	report, err := svc.Generate(context.Background(), identityFor(admin), dto.ReportFilter{Department: "CS"})
	require.NoError(t, err)
	require.Equal(t, 1, report.Count)
	require.Equal(t, 0, report.Rows[0].TotalActivities)
	require.Equal(t, 0, report.Rows[0].TotalPoints)
}

func TestReportTeacherDefaultsOwnDepartment(t *testing.T) {
	db, svc := setupReportService(t, nil)
	teacher := createUser(t, db, "prof", models.RoleTeacher, "CS", "")
	createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	createUser(t, db, "carol", models.RoleStudent, "EE", "A")

	report, err := svc.Generate(context.Background(), identityFor(teacher), dto.ReportFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Count)
	require.Equal(t, "alice", report.Rows[0].Student.Name)
}

func TestReportServesFromCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer cache.Close()

	db, svc := setupReportService(t, cache)
	admin := createUser(t, db, "root", models.RoleSuperadmin, "", "")
	alice := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	createActivity(t, db, alice.ID, models.ActivityStatusApproved, 15)

	first, err := svc.Generate(context.Background(), identityFor(admin), dto.ReportFilter{Department: "CS"})
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	// Later store changes stay invisible until the cache entry expires.
	createActivity(t, db, alice.ID, models.ActivityStatusApproved, 5)

	second, err := svc.Generate(context.Background(), identityFor(admin), dto.ReportFilter{Department: "CS"})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, 15, second.Rows[0].TotalPoints)

	server.FastForward(2 * time.Minute)

	third, err := svc.Generate(context.Background(), identityFor(admin), dto.ReportFilter{Department: "CS"})
	require.NoError(t, err)
	require.False(t, third.CacheHit)
	require.Equal(t, 20, third.Rows[0].TotalPoints)
}

func TestReportValidatesStatusFilter(t *testing.T) {
	db, svc := setupReportService(t, nil)
	admin := createUser(t, db, "root", models.RoleSuperadmin, "", "")

	_, err := svc.Generate(context.Background(), identityFor(admin), dto.ReportFilter{Status: "archived"})
	require.Error(t, err)
}

func TestReportExportRendersWorkbook(t *testing.T) {
	db, svc := setupReportService(t, nil)
	admin := createUser(t, db, "root", models.RoleSuperadmin, "", "")
	alice := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	createActivity(t, db, alice.ID, models.ActivityStatusApproved, 15)

	data, err := svc.Export(context.Background(), identityFor(admin), dto.ReportFilter{Department: "CS"})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer workbook.Close()

	header, err := workbook.GetCellValue("Report", "A1")
	require.NoError(t, err)
	require.Equal(t, "Name", header)

	name, err := workbook.GetCellValue("Report", "A2")
	require.NoError(t, err)
	require.Equal(t, "alice", name)

	points, err := workbook.GetCellValue("Report", "J2")
	require.NoError(t, err)
	require.Equal(t, "15", points)
}
