// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package certificate_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/repository"
	"codeberg.org/acmclub/certificates/internal/services/certificate"
	"codeberg.org/acmclub/certificates/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
	// release, when set, holds every send until it is closed.
	release chan struct{}
}

func (n *recordingNotifier) SendCertificateIssued(_ context.Context, cert *models.Certificate) error {
	if n.release != nil {
		<-n.release
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, cert.Code)
	return n.err
}

func (n *recordingNotifier) codes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, opts ...certificate.Option) (*certificate.Service, *repository.Repository) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	opts = append([]certificate.Option{certificate.WithClock(fixedClock)}, opts...)
	svc := certificate.NewService(repo,
		config.APIConfig{DefaultPageSize: 100, MaxPageSize: 1000},
		config.CertificateConfig{CodePrefix: "ACM"},
		opts...)
	return svc, repo
}

func reactInput() certificate.CreateInput {
	return certificate.CreateInput{
		Code:          "ACM-2024-REACT001",
		RecipientName: "Alex Johnson",
		Email:         "alex@example.com",
		WorkshopName:  "Advanced React Patterns",
		IssueDate:     "October 24, 2023",
		Skills:        []string{"React Hooks", " Context API ", ""},
		Instructor:    "Dr. Emily Chen",
	}
}

func TestCreate_ExplicitCode(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, certificate.WithNotifier(notifier))

	cert, err := svc.Create(context.Background(), reactInput())

	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-REACT001", cert.Code)
	assert.True(t, cert.IsVerified)
	assert.NotEmpty(t, cert.VerificationCode)
	assert.Equal(t, []string{"React Hooks", "Context API"}, cert.Skills.Slice())

	svc.Wait()
	assert.Equal(t, []string{"ACM-2024-REACT001"}, notifier.codes())
}

func TestCreate_LowercaseCodeIsUppercased(t *testing.T) {
	svc, _ := newTestService(t)
	in := reactInput()
	in.Code = "acm-2024-react001"

	cert, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-REACT001", cert.Code)
}

func TestCreate_InvalidCode(t *testing.T) {
	svc, _ := newTestService(t)
	in := reactInput()
	in.Code = "NO SPACES"

	_, err := svc.Create(context.Background(), in)

	var vErr *apperr.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "code", vErr.Field)
}

func TestCreate_DuplicateExplicitCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, reactInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, reactInput())
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCreate_GeneratedCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	in := reactInput()
	in.Code = ""
	in.WorkshopName = "Python for Data Science"

	first, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-PYTHO001", first.Code)

	second, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-PYTHO002", second.Code)
}

func TestCreate_GeneratedCodeAfterDeletes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	in := reactInput()
	in.Code = ""
	in.WorkshopName = "Python for Data Science"

	var created []*models.Certificate
	for range 6 {
		cert, err := svc.Create(ctx, in)
		require.NoError(t, err)
		created = append(created, cert)
	}
	assert.Equal(t, "ACM-2024-PYTHO006", created[5].Code)

	for _, cert := range created[:3] {
		require.NoError(t, svc.Delete(ctx, cert.ID))
	}

	cert, err := svc.Create(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-PYTHO007", cert.Code)
}

func TestCreate_GeneratedCodeIgnoresLongerSlugs(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	testutil.NewTestCertificate(t, repo, "ACM-2024-PYTHO004", "x@example.com")

	in := reactInput()
	in.Code = ""
	in.WorkshopName = "PY"

	cert, err := svc.Create(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-PY001", cert.Code)
}

func TestCreate_GeneratedCodeSkipsTakenSequence(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	// An unrelated code shares the stem but not the next sequence number.
	testutil.NewTestCertificate(t, repo, "ACM-2024-PYTHO002", "x@example.com")

	in := reactInput()
	in.Code = ""
	in.WorkshopName = "Python for Data Science"

	cert, err := svc.Create(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-PYTHO003", cert.Code)
}

func TestCreate_WithWorkshop(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	w := testutil.NewTestWorkshop(t, repo, "Advanced React Patterns")
	in := reactInput()
	in.WorkshopID = w.ID
	in.WorkshopName = ""
	in.Instructor = ""

	cert, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, w.Title, cert.WorkshopName)
	assert.Equal(t, w.Instructor, cert.Instructor)

	linked, err := repo.ListWorkshopCertificates(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, cert.ID, linked[0].ID)
}

func TestCreate_UnknownWorkshop(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	in := reactInput()
	in.WorkshopID = "missing"

	_, err := svc.Create(ctx, in)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	count, err := repo.CountCertificates(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreate_NotifierFailureDoesNotFail(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc, _ := newTestService(t, certificate.WithNotifier(notifier))

	cert, err := svc.Create(context.Background(), reactInput())

	require.NoError(t, err)
	assert.NotNil(t, cert)

	svc.Wait()
	assert.Len(t, notifier.codes(), 1)
}

func TestCreate_DoesNotWaitForNotifier(t *testing.T) {
	notifier := &recordingNotifier{release: make(chan struct{})}
	svc, _ := newTestService(t, certificate.WithNotifier(notifier))

	cert, err := svc.Create(context.Background(), reactInput())

	require.NoError(t, err)
	assert.Equal(t, "ACM-2024-REACT001", cert.Code)
	assert.Empty(t, notifier.codes())

	close(notifier.release)
	svc.Wait()
	assert.Equal(t, []string{"ACM-2024-REACT001"}, notifier.codes())
}

func TestCreate_NotifiesAfterRequestContextEnds(t *testing.T) {
	notifier := &recordingNotifier{release: make(chan struct{})}
	svc, _ := newTestService(t, certificate.WithNotifier(notifier))
	ctx, cancel := context.WithCancel(context.Background())

	_, err := svc.Create(ctx, reactInput())
	require.NoError(t, err)
	cancel()

	close(notifier.release)
	svc.Wait()
	assert.Len(t, notifier.codes(), 1)
}

func TestBulkCreate(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, repo := newTestService(t, certificate.WithNotifier(notifier))
	ctx := context.Background()

	w := testutil.NewTestWorkshop(t, repo, "Advanced React Patterns")
	items := []certificate.CreateInput{
		{RecipientName: "Alex Johnson", Email: "alex@example.com", IssueDate: "October 24, 2023"},
		{RecipientName: "Sam Lee", Email: "sam@example.com", IssueDate: "October 24, 2023", Code: "ACM-2024-CUSTOM1"},
	}

	certs, err := svc.BulkCreate(ctx, certificate.BulkInput{WorkshopID: w.ID, Certificates: items})

	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.Equal(t, "ACM-2024-ADVAN001", certs[0].Code)
	assert.Equal(t, "ACM-2024-CUSTOM1", certs[1].Code)
	for _, c := range certs {
		assert.Equal(t, w.Title, c.WorkshopName)
		assert.Equal(t, w.Instructor, c.Instructor)
	}
	svc.Wait()
	assert.ElementsMatch(t, []string{"ACM-2024-ADVAN001", "ACM-2024-CUSTOM1"}, notifier.codes())

	linked, err := repo.ListWorkshopCertificates(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}

func TestBulkCreate_IsAtomic(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, repo := newTestService(t, certificate.WithNotifier(notifier))
	ctx := context.Background()

	w := testutil.NewTestWorkshop(t, repo, "Advanced React Patterns")
	testutil.NewTestCertificate(t, repo, "ACM-2024-TAKEN01", "taken@example.com")

	items := []certificate.CreateInput{
		{RecipientName: "First", Email: "first@example.com", IssueDate: "2024", Code: "ACM-2024-FRESH01"},
		{RecipientName: "Second", Email: "second@example.com", IssueDate: "2024", Code: "ACM-2024-TAKEN01"},
	}

	_, err := svc.BulkCreate(ctx, certificate.BulkInput{WorkshopID: w.ID, Certificates: items})
	require.ErrorIs(t, err, repository.ErrConflict)

	count, err := repo.CountCertificates(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "batch must roll back completely")

	linked, err := repo.ListWorkshopCertificates(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	svc.Wait()
	assert.Empty(t, notifier.codes())
}

func TestBulkCreate_NotifiesEveryRecipient(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, repo := newTestService(t, certificate.WithNotifier(notifier))
	w := testutil.NewTestWorkshop(t, repo, "Go")

	items := make([]certificate.CreateInput, 12)
	for i := range items {
		items[i] = certificate.CreateInput{
			RecipientName: fmt.Sprintf("Student %d", i),
			Email:         fmt.Sprintf("student%d@example.com", i),
			IssueDate:     "2024",
		}
	}

	certs, err := svc.BulkCreate(context.Background(), certificate.BulkInput{WorkshopID: w.ID, Certificates: items})
	require.NoError(t, err)

	want := make([]string, len(certs))
	for i, c := range certs {
		want[i] = c.Code
	}
	svc.Wait()
	assert.ElementsMatch(t, want, notifier.codes())
}

func TestBulkCreate_Validation(t *testing.T) {
	svc, repo := newTestService(t)
	w := testutil.NewTestWorkshop(t, repo, "Go")

	_, err := svc.BulkCreate(context.Background(), certificate.BulkInput{
		WorkshopID: w.ID,
		Certificates: []certificate.CreateInput{
			{RecipientName: "Ok", Email: "ok@example.com", IssueDate: "2024"},
			{RecipientName: "Bad", Email: "not-an-email", IssueDate: "2024"},
		},
	})

	var vErr *apperr.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "certificates[1].email", vErr.Field)
}

func TestBulkCreate_UnknownWorkshop(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.BulkCreate(context.Background(), certificate.BulkInput{
		WorkshopID:   "missing",
		Certificates: []certificate.CreateInput{{RecipientName: "A", Email: "a@example.com", IssueDate: "2024"}},
	})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cert, err := svc.Create(ctx, reactInput())
	require.NoError(t, err)

	view, err := svc.Verify(ctx, "ACM-2024-REACT001")
	require.NoError(t, err)
	assert.True(t, view.IsVerified)
	assert.Equal(t, "Alex Johnson", view.RecipientName)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "email")

	byLower, err := svc.Verify(ctx, "acm-2024-react001")
	require.NoError(t, err)
	assert.Equal(t, cert.ID, byLower.ID)

	byVerification, err := svc.Verify(ctx, cert.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, byVerification.ID)
}

func TestVerify_Unknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Verify(context.Background(), "ACM-0000-NOPE000")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSearchByEmail(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	testutil.NewTestCertificate(t, repo, "ACM-2024-A001", "alex@example.com")
	testutil.NewTestCertificate(t, repo, "ACM-2024-B001", "sarah@example.com")

	views, err := svc.SearchByEmail(ctx, "ALEX@example.com")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "ACM-2024-A001", views[0].Code)

	_, err = svc.SearchByEmail(ctx, "")
	var vErr *apperr.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestList_ClampsLimit(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := certificate.NewService(repo,
		config.APIConfig{DefaultPageSize: 2, MaxPageSize: 3},
		config.CertificateConfig{})
	ctx := context.Background()

	for i := range 5 {
		testutil.NewTestCertificate(t, repo, fmt.Sprintf("ACM-2024-L%03d", i), "a@example.com")
	}

	certs, err := svc.List(ctx, 0, 1_000_000)
	require.NoError(t, err)
	assert.Len(t, certs, 3)

	certs, err = svc.List(ctx, -1, 0)
	require.NoError(t, err)
	assert.Len(t, certs, 2)
}

func TestUpdate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	original := testutil.NewTestCertificate(t, repo, "ACM-2024-REACT001", "alex@example.com")

	var in certificate.UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"recipient_name": "Alexandra Johnson",
		"skills": ["Suspense"],
		"is_verified": false,
		"code": "HACKED",
		"verification_code": "hacked"
	}`), &in))

	updated, err := svc.Update(ctx, original.ID, in)

	require.NoError(t, err)
	assert.Equal(t, "Alexandra Johnson", updated.RecipientName)
	assert.Equal(t, []string{"Suspense"}, updated.Skills.Slice())
	assert.False(t, updated.IsVerified)
	assert.Equal(t, original.Code, updated.Code)
	assert.Equal(t, original.VerificationCode, updated.VerificationCode)
	assert.Equal(t, original.WorkshopName, updated.WorkshopName)
}

func TestUpdate_Errors(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	cert := testutil.NewTestCertificate(t, repo, "ACM-2024-REACT001", "alex@example.com")

	var nullName certificate.UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"recipient_name": null}`), &nullName))
	_, err := svc.Update(ctx, cert.ID, nullName)
	var vErr *apperr.ValidationError
	assert.True(t, errors.As(err, &vErr))

	var rename certificate.UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"recipient_name": "X"}`), &rename))
	_, err = svc.Update(ctx, "missing", rename)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	cert := testutil.NewTestCertificate(t, repo, "ACM-2024-REACT001", "alex@example.com")

	require.NoError(t, svc.Delete(ctx, cert.ID))
	assert.ErrorIs(t, svc.Delete(ctx, cert.ID), repository.ErrNotFound)

	_, err := svc.Verify(ctx, "ACM-2024-REACT001")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStats(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	testutil.NewTestWorkshop(t, repo, "Go")
	testutil.NewTestCertificate(t, repo, "ACM-2024-A001", "a@example.com")
	testutil.NewTestCertificate(t, repo, "ACM-2024-B001", "b@example.com")

	stats, err := svc.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCertificates)
	assert.Equal(t, int64(1), stats.TotalWorkshops)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Advanced React Patterns": "ADVAN",
		"Go":                      "GO",
		"C++ & Rust 101":          "CRUST",
		"Ünïcode":                 "NCODE",
		"!!!":                     "CERT",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, certificate.Slug(name))
		})
	}
}
