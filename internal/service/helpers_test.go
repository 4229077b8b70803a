package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campushub/activity-portal-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Activity{}, &models.AuditLog{}))

	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, role models.Role, department, class string) models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s_%d@example.edu", name, time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         role,
		Department:   department,
		Class:        class,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createActivity(t *testing.T, db *gorm.DB, studentID uint, status string, points int) models.Activity {
	t.Helper()

	activity := models.Activity{
		StudentID:      studentID,
		ActivityType:   "Technical",
		Title:          "State Hackathon",
		Description:    "Placed second at the state hackathon",
		Date:           time.Now().Add(-72 * time.Hour),
		CertificateURL: "https://files.test/cert.pdf",
		CertificateID:  "certs/cert",
		Status:         status,
		PointsAwarded:  points,
	}
	require.NoError(t, db.Create(&activity).Error)
	return activity
}

// certificateFile builds a real multipart file header the way fiber hands one
// to the handler layer.
func certificateFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("certificate", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["certificate"]
	require.Len(t, files, 1)
	return files[0]
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
}

type recordingUploader struct {
	uploads   []string
	deleted   []string
	uploadErr error
}

func (u *recordingUploader) Upload(_ context.Context, name string, _ io.Reader) (Artifact, error) {
	if u.uploadErr != nil {
		return Artifact{}, u.uploadErr
	}
	u.uploads = append(u.uploads, name)
	return Artifact{
		URL:      "https://files.test/" + name,
		PublicID: "certs/" + name,
	}, nil
}

func (u *recordingUploader) Delete(_ context.Context, publicID string) error {
	u.deleted = append(u.deleted, publicID)
	return nil
}

type recordingAudit struct {
	entries []AuditEntry
}

func (a *recordingAudit) Record(_ context.Context, entry AuditEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}
