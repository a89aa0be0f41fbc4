package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/diploma-service/internal/email"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type universityFixture struct {
	repo    *fakeRepository
	service UniversityService
	mailer  *email.RecordingMailer
}

func newUniversityFixture(t *testing.T) *universityFixture {
	t.Helper()
	repo := newFakeRepository()
	mailer := email.NewRecordingMailer()
	deps := Dependencies{
		Mailer:        mailer,
		InvitationTTL: time.Hour,
		FrontendURL:   "http://localhost:3000",
	}
	return &universityFixture{
		repo:    repo,
		service: NewUniversityService(repo, nil, newTestLogger(), validator.New(), deps),
		mailer:  mailer,
	}
}

func TestUniversityService_Register(t *testing.T) {
	f := newUniversityFixture(t)

	resp, err := f.service.Register(context.Background(), &validator.RegisterUniversityRequest{
		Name:   "Foo University",
		Domain: "@Foo.edu",
	})
	require.NoError(t, err)
	assert.Equal(t, "@foo.edu", resp.Domain, "domain is stored lower-cased")
	assert.True(t, resp.IsVerified)
}

func TestUniversityService_Register_DuplicateDomain(t *testing.T) {
	f := newUniversityFixture(t)
	f.repo.addUniversity("Foo University", "@foo.edu")

	_, err := f.service.Register(context.Background(), &validator.RegisterUniversityRequest{
		Name:   "Foo Polytechnic",
		Domain: "@FOO.edu",
	})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "domain", verrs[0].Field)
	assert.Equal(t, "unique", verrs[0].Rule)
}

func TestUniversityService_Register_RejectsBareDomain(t *testing.T) {
	f := newUniversityFixture(t)

	_, err := f.service.Register(context.Background(), &validator.RegisterUniversityRequest{
		Name:   "Foo University",
		Domain: "foo.edu",
	})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestUniversityService_ListVerified(t *testing.T) {
	f := newUniversityFixture(t)
	ctx := context.Background()

	u := f.repo.addUniversity("Foo University", "@foo.edu")
	require.NoError(t, f.repo.users.Create(ctx, nil, &models.User{
		Email:        "dean@foo.edu",
		Role:         models.RoleUniversityAdmin,
		UniversityID: &u.ID,
	}))

	out, err := f.service.ListVerified(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"dean@foo.edu"}, out[0].AdminEmails)
}

func TestUniversityService_InviteAdmin(t *testing.T) {
	f := newUniversityFixture(t)
	u := f.repo.addUniversity("Foo University", "@foo.edu")

	err := f.service.InviteAdmin(context.Background(), &validator.InviteUniversityAdminRequest{
		Email:        "Dean@Foo.edu",
		UniversityID: u.ID,
	})
	require.NoError(t, err)

	require.Len(t, f.repo.tokens.invitations, 1)
	invitation := f.repo.tokens.invitations[0]
	assert.Equal(t, "dean@foo.edu", invitation.Email)
	assert.Equal(t, u.ID, invitation.UniversityID)

	messages := f.mailer.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "dean@foo.edu", messages[0].To)
	assert.Contains(t, messages[0].Body, invitation.Token)
}

func TestUniversityService_InviteAdmin_UnknownUniversity(t *testing.T) {
	f := newUniversityFixture(t)

	err := f.service.InviteAdmin(context.Background(), &validator.InviteUniversityAdminRequest{
		Email:        "dean@foo.edu",
		UniversityID: 999,
	})
	assert.ErrorIs(t, err, ErrUniversityNotFound)
}
