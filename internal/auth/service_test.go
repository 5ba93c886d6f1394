package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicbook/clinic-booking/internal/patient"
)

type fakePatientRepo struct {
	byEmail    map[string]*patient.Patient
	lastLogins map[uuid.UUID]int
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{
		byEmail:    make(map[string]*patient.Patient),
		lastLogins: make(map[uuid.UUID]int),
	}
}

func (f *fakePatientRepo) Create(ctx context.Context, p *patient.Patient) (*patient.Patient, error) {
	if _, ok := f.byEmail[p.Email]; ok {
		return nil, patient.ErrEmailTaken
	}
	cp := *p
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	f.byEmail[cp.Email] = &cp
	out := cp
	return &out, nil
}

func (f *fakePatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	for _, p := range f.byEmail {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, patient.ErrNotFound
}

func (f *fakePatientRepo) GetByEmail(ctx context.Context, email string) (*patient.Patient, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return nil, patient.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	f.lastLogins[id]++
	return nil
}

func newTestAuthService(repo patient.Repository) *Service {
	// Minimum bcrypt cost keeps the suite fast.
	return NewService(repo, "test-secret", 24*time.Hour, 4, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestAuthService(repo)

	p, token, err := svc.Register(context.Background(), "Ada Kovacs", "ada@example.com", "s3cret!!")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, patient.RolePatient, p.Role)
	assert.NotEqual(t, "s3cret!!", p.PasswordHash)

	logged, loginToken, err := svc.Login(context.Background(), "ada@example.com", "s3cret!!")
	require.NoError(t, err)
	assert.Equal(t, p.ID, logged.ID)
	assert.NotEmpty(t, loginToken)
	assert.Equal(t, 1, repo.lastLogins[p.ID])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestAuthService(repo)

	_, _, err := svc.Register(context.Background(), "Ada Kovacs", "ada@example.com", "s3cret!!")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "Other Ada", "ada@example.com", "different")
	assert.ErrorIs(t, err, patient.ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestAuthService(repo)

	_, _, err := svc.Register(context.Background(), "Ada Kovacs", "ada@example.com", "s3cret!!")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(newFakePatientRepo())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(newFakePatientRepo())

	p := &patient.Patient{ID: uuid.New(), Role: patient.RoleAdmin}
	token, err := svc.IssueToken(p)
	require.NoError(t, err)

	principal, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, principal.ID)
	assert.Equal(t, patient.RoleAdmin, principal.Role)
	assert.True(t, principal.Admin())
}

func TestParseTokenWrongSecret(t *testing.T) {
	issuer := newTestAuthService(newFakePatientRepo())
	verifier := NewService(newFakePatientRepo(), "other-secret", 24*time.Hour, 4, zap.NewNop())

	token, err := issuer.IssueToken(&patient.Patient{ID: uuid.New(), Role: patient.RolePatient})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestAuthService(repo)

	issued := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.IssueToken(&patient.Patient{ID: uuid.New(), Role: patient.RolePatient})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(25 * time.Hour) }

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	svc := newTestAuthService(newFakePatientRepo())

	_, err := svc.ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
