package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/repository"
	"github.com/campushub/activity-portal-api/internal/scope"
)

func identityFor(user models.User) scope.Identity {
	return scope.Identity{
		ID:         user.ID,
		Role:       user.Role,
		Department: user.Department,
		Class:      user.Class,
		Semester:   user.Semester,
	}
}

func setupActivityService(t *testing.T) (*gorm.DB, ActivityService, *recordingUploader, *recordingAudit) {
	t.Helper()

	db := setupServiceDB(t, "activity_service")
	users := repository.NewUserRepository(db)
	activities := repository.NewActivityRepository(db)
	resolver := scope.NewResolver(users)
	uploader := &recordingUploader{}
	audit := &recordingAudit{}

	svc := NewActivityService(activities, users, resolver, testValidator(), uploader, audit, testLogger())
	if concrete, ok := svc.(*activityService); ok {
		concrete.now = func() time.Time { return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC) }
	}

	return db, svc, uploader, audit
}

func submitPayload() dto.ActivitySubmitRequest {
	return dto.ActivitySubmitRequest{
		ActivityType: "Technical",
		Title:        "State Hackathon",
		Description:  "Placed second at the state hackathon",
		Date:         time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestSubmitCreatesPendingActivity(t *testing.T) {
	db, svc, uploader, _ := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")

	file := certificateFile(t, "hackathon.pdf", pdfBytes())
	response, err := svc.Submit(context.Background(), identityFor(student), submitPayload(), file)
	require.NoError(t, err)

	require.Equal(t, models.ActivityStatusPending, response.Status)
	require.Equal(t, 0, response.PointsAwarded)
	require.Equal(t, student.ID, response.StudentID)
	require.Equal(t, "A", response.StudentClass)
	require.Equal(t, "CS", response.StudentDepartment)
	require.Equal(t, "https://files.test/hackathon.pdf", response.CertificateURL)
	require.Equal(t, "Not specified", response.EventOrganizer)
	require.Equal(t, 1, response.Level)
	require.Len(t, uploader.uploads, 1)
	require.Empty(t, uploader.deleted)
}

func TestSubmitRejectsUnsupportedCertificate(t *testing.T) {
	db, svc, uploader, _ := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")

	file := certificateFile(t, "notes.txt", []byte("plain text, not a certificate"))
	_, err := svc.Submit(context.Background(), identityFor(student), submitPayload(), file)
	require.Error(t, err)
	require.Empty(t, uploader.uploads)
}

func TestSubmitRequiresCertificate(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")

	_, err := svc.Submit(context.Background(), identityFor(student), submitPayload(), nil)
	require.ErrorIs(t, err, ErrCertificateRequired)
}

func TestSubmitValidatesActivityType(t *testing.T) {
	db, svc, uploader, _ := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")

	payload := submitPayload()
	payload.ActivityType = "Gardening"
	_, err := svc.Submit(context.Background(), identityFor(student), payload, certificateFile(t, "cert.pdf", pdfBytes()))
	require.Error(t, err)
	require.Empty(t, uploader.uploads)
}

type failingActivityRepo struct {
	repository.ActivityRepository
	createErr error
}

func (f *failingActivityRepo) Create(context.Context, *models.Activity) error {
	return f.createErr
}

func TestSubmitReleasesArtifactWhenStoreFails(t *testing.T) {
	db := setupServiceDB(t, "activity_cleanup")
	users := repository.NewUserRepository(db)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")

	uploader := &recordingUploader{}
	boom := errors.New("insert failed")
	activities := &failingActivityRepo{
		ActivityRepository: repository.NewActivityRepository(db),
		createErr:          boom,
	}
	svc := NewActivityService(activities, users, scope.NewResolver(users), testValidator(), uploader, &recordingAudit{}, testLogger())

	_, err := svc.Submit(context.Background(), identityFor(student), submitPayload(), certificateFile(t, "cert.pdf", pdfBytes()))
	require.ErrorIs(t, err, boom)
	require.Len(t, uploader.uploads, 1)
	require.Equal(t, []string{"certs/cert.pdf"}, uploader.deleted)
}

func TestReviewApprovesPendingActivity(t *testing.T) {
	db, svc, _, audit := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	teacher := createUser(t, db, "prof", models.RoleTeacher, "CS", "A")
	activity := createActivity(t, db, student.ID, models.ActivityStatusPending, 0)

	response, err := svc.Review(context.Background(), identityFor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:        models.ActivityStatusApproved,
		PointsAwarded: 15,
		Feedback:      "great work",
	})
	require.NoError(t, err)

	require.Equal(t, models.ActivityStatusApproved, response.Status)
	require.Equal(t, 15, response.PointsAwarded)
	require.Equal(t, "great work", response.Feedback)
	require.NotNil(t, response.ReviewedAt)
	require.NotNil(t, response.ReviewedBy)
	require.Equal(t, teacher.ID, response.ReviewedBy.ID)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "activity.reviewed", audit.entries[0].Action)
	require.Equal(t, teacher.ID, audit.entries[0].ActorID)
}

func TestReviewRejectionZeroesPoints(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	teacher := createUser(t, db, "prof", models.RoleTeacher, "CS", "A")
	activity := createActivity(t, db, student.ID, models.ActivityStatusPending, 0)

	// Points supplied with a rejection are ignored.
	response, err := svc.Review(context.Background(), identityFor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:        models.ActivityStatusRejected,
		PointsAwarded: 40,
		Feedback:      "certificate unreadable",
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusRejected, response.Status)
	require.Equal(t, 0, response.PointsAwarded)
}

func TestReviewOutsideDepartmentDenied(t *testing.T) {
	db, svc, _, audit := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	outsider := createUser(t, db, "prof", models.RoleTeacher, "EE", "")
	activity := createActivity(t, db, student.ID, models.ActivityStatusPending, 0)

	_, err := svc.Review(context.Background(), identityFor(outsider), activity.ID, dto.ActivityReviewRequest{
		Status:        models.ActivityStatusApproved,
		PointsAwarded: 10,
	})
	require.ErrorIs(t, err, ErrActivityNotInScope)
	require.Empty(t, audit.entries)

	var stored models.Activity
	require.NoError(t, db.First(&stored, activity.ID).Error)
	require.Equal(t, models.ActivityStatusPending, stored.Status)
	require.Equal(t, 0, stored.PointsAwarded)
}

func TestReviewChecksLiveDepartmentNotSnapshot(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	oldDeptTeacher := createUser(t, db, "prof-cs", models.RoleTeacher, "CS", "")
	newDeptTeacher := createUser(t, db, "prof-ee", models.RoleTeacher, "EE", "")
	activity := createActivity(t, db, student.ID, models.ActivityStatusPending, 0)

	// The student transfers after submitting; the activity keeps its CS
	// snapshot but review rights move with the student.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", student.ID).Update("department", "EE").Error)

	_, err := svc.Review(context.Background(), identityFor(oldDeptTeacher), activity.ID, dto.ActivityReviewRequest{
		Status:        models.ActivityStatusApproved,
		PointsAwarded: 5,
	})
	require.ErrorIs(t, err, ErrActivityNotInScope)

	response, err := svc.Review(context.Background(), identityFor(newDeptTeacher), activity.ID, dto.ActivityReviewRequest{
		Status:        models.ActivityStatusApproved,
		PointsAwarded: 5,
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusApproved, response.Status)
	require.Equal(t, "CS", response.StudentDepartment)
}

func TestReviewTerminalActivityConflicts(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	student := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	teacher := createUser(t, db, "prof", models.RoleTeacher, "CS", "A")
	activity := createActivity(t, db, student.ID, models.ActivityStatusPending, 0)

	first, err := svc.Review(context.Background(), identityFor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:        models.ActivityStatusApproved,
		PointsAwarded: 15,
	})
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), identityFor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:        models.ActivityStatusRejected,
		PointsAwarded: 0,
	})
	require.ErrorIs(t, err, ErrActivityAlreadyReviewed)

	var stored models.Activity
	require.NoError(t, db.First(&stored, activity.ID).Error)
	require.Equal(t, first.Status, stored.Status)
	require.Equal(t, first.PointsAwarded, stored.PointsAwarded)
}

func TestReviewMissingActivity(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	teacher := createUser(t, db, "prof", models.RoleTeacher, "CS", "A")

	_, err := svc.Review(context.Background(), identityFor(teacher), 999, dto.ActivityReviewRequest{
		Status: models.ActivityStatusApproved,
	})
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestListPendingScopesToTeacher(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	alice := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	bob := createUser(t, db, "bob", models.RoleStudent, "EE", "B")
	teacher := createUser(t, db, "prof", models.RoleTeacher, "CS", "")

	createActivity(t, db, alice.ID, models.ActivityStatusPending, 0)
	createActivity(t, db, alice.ID, models.ActivityStatusApproved, 10)
	createActivity(t, db, bob.ID, models.ActivityStatusPending, 0)

	pending, err := svc.ListPending(context.Background(), identityFor(teacher))
	require.NoError(t, err)
	require.Len(t, pending.Activities, 1)
	require.Equal(t, alice.ID, pending.Activities[0].StudentID)
	require.Equal(t, int64(1), pending.Stats.Pending)
	require.Equal(t, int64(1), pending.Stats.Approved)
	require.Equal(t, int64(0), pending.Stats.Rejected)
}

func TestListOwnReturnsOnlyRequesterRecords(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	alice := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	bob := createUser(t, db, "bob", models.RoleStudent, "CS", "A")

	createActivity(t, db, alice.ID, models.ActivityStatusPending, 0)
	createActivity(t, db, bob.ID, models.ActivityStatusApproved, 10)

	own, err := svc.ListOwn(context.Background(), identityFor(alice))
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, alice.ID, own[0].StudentID)
}

func TestListAllFiltersByStatus(t *testing.T) {
	db, svc, _, _ := setupActivityService(t)
	alice := createUser(t, db, "alice", models.RoleStudent, "CS", "A")
	bob := createUser(t, db, "bob", models.RoleStudent, "EE", "B")
	admin := createUser(t, db, "root", models.RoleSuperadmin, "", "")

	createActivity(t, db, alice.ID, models.ActivityStatusPending, 0)
	createActivity(t, db, bob.ID, models.ActivityStatusApproved, 20)

	all, err := svc.ListAll(context.Background(), identityFor(admin), "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	approved, err := svc.ListAll(context.Background(), identityFor(admin), models.ActivityStatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, bob.ID, approved[0].StudentID)
}
