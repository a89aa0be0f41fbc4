package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/diploma-service/internal/email"
	"github.com/SAP-F-2025/diploma-service/internal/events"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

// plainHasher keeps account tests fast; bcrypt is exercised in pkg.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type accountFixture struct {
	repo       *fakeRepository
	service    AccountService
	degrees    DegreeService
	linking    LinkingService
	publisher  *events.MockEventPublisher
	mailer     *email.RecordingMailer
	university *models.University
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	repo := newFakeRepository()
	logger := newTestLogger()
	publisher := events.NewMockEventPublisher(logger)
	mailer := email.NewRecordingMailer()
	v := validator.New()

	deps := Dependencies{
		Mailer:          mailer,
		Events:          publisher,
		Hasher:          plainHasher{},
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		VerificationTTL: 24 * time.Hour,
		InvitationTTL:   time.Hour,
		FrontendURL:     "http://localhost:3000",
	}

	linking := NewLinkingService(repo, nil, logger, publisher, mailer)
	return &accountFixture{
		repo:       repo,
		service:    NewAccountService(repo, nil, logger, v, linking, deps),
		degrees:    NewDegreeService(repo, nil, logger, v, publisher, nil),
		linking:    linking,
		publisher:  publisher,
		mailer:     mailer,
		university: repo.addUniversity("Foo University", "@foo.edu"),
	}
}

func (f *accountFixture) register(t *testing.T, emailAddr string) *UserResponse {
	t.Helper()
	resp, err := f.service.RegisterStudent(context.Background(), &validator.RegisterStudentRequest{
		Email:        emailAddr,
		Password:     "correct-horse",
		UniversityID: f.university.ID,
	})
	require.NoError(t, err)
	return resp
}

// latestVerificationToken digs the token out of storage the way the emailed
// link would carry it.
func (f *accountFixture) latestVerificationToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.repo.tokens.verifications)
	return f.repo.tokens.verifications[len(f.repo.tokens.verifications)-1].Token
}

func TestAccountService_RegisterStudent(t *testing.T) {
	f := newAccountFixture(t)

	resp := f.register(t, "Jane@Foo.edu")
	assert.Equal(t, "jane@foo.edu", resp.Email)
	assert.Equal(t, models.RoleStudent, resp.Role)
	assert.False(t, resp.IsVerified)
	require.NotNil(t, resp.UniversityID)
	assert.Equal(t, f.university.ID, *resp.UniversityID)

	messages := f.mailer.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "jane@foo.edu", messages[0].To)
	assert.Contains(t, messages[0].Body, f.latestVerificationToken(t))
}

func TestAccountService_RegisterStudent_DomainMismatch(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.service.RegisterStudent(context.Background(), &validator.RegisterStudentRequest{
		Email:        "jane@bar.edu",
		Password:     "correct-horse",
		UniversityID: f.university.ID,
	})
	require.Error(t, err)
	assert.True(t, IsDomainMismatch(err))
}

func TestAccountService_RegisterStudent_EmailInUse(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "jane@foo.edu")

	_, err := f.service.RegisterStudent(context.Background(), &validator.RegisterStudentRequest{
		Email:        "JANE@foo.edu",
		Password:     "other-password",
		UniversityID: f.university.ID,
	})
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestAccountService_RegisterStudent_UnknownUniversity(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.service.RegisterStudent(context.Background(), &validator.RegisterStudentRequest{
		Email:        "jane@foo.edu",
		Password:     "correct-horse",
		UniversityID: 999,
	})
	assert.ErrorIs(t, err, ErrUniversityNotFound)
}

func TestAccountService_ConfirmEmail(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "jane@foo.edu")
	token := f.latestVerificationToken(t)

	resp, err := f.service.ConfirmEmail(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, resp.User.IsVerified)
	assert.Nil(t, resp.LinkedDegreeID, "no submitted degree exists for this email yet")

	// Single use.
	_, err = f.service.ConfirmEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccountService_ConfirmEmail_InvalidToken(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.service.ConfirmEmail(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

// TestAccountService_ConfirmEmail_LinksSubmittedDegree walks the whole flow:
// an admin stages and submits a degree for jane@foo.edu before Jane has an
// account, Jane registers and verifies, and verification hands her the
// degree.
func TestAccountService_ConfirmEmail_LinksSubmittedDegree(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	uploaded, err := f.degrees.Upload(ctx, f.university.ID, &validator.DegreeCreateRequest{
		DegreeType:     "Bachelor of Science",
		Major:          "Computer Science",
		GraduationDate: "2025-06-15",
		StudentEmail:   "jane@foo.edu",
	})
	require.NoError(t, err)

	for _, step := range []int{models.ConfirmStepInitial, models.ConfirmStepFinal} {
		_, err := f.degrees.ConfirmBatch(ctx, f.university.ID, &validator.ConfirmDegreesRequest{
			DegreeIDs:        []uint{uploaded.ID},
			ConfirmationStep: step,
		})
		require.NoError(t, err)
	}

	f.register(t, "jane@foo.edu")
	resp, err := f.service.ConfirmEmail(ctx, f.latestVerificationToken(t))
	require.NoError(t, err)
	require.NotNil(t, resp.LinkedDegreeID)
	assert.Equal(t, uploaded.ID, *resp.LinkedDegreeID)

	stored, err := f.repo.degrees.GetByID(ctx, nil, uploaded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DegreeLinked, stored.Status)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, resp.User.ID, *stored.UserID)

	linked, err := f.linking.ListLinked(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, uploaded.ID, linked[0].ID)

	user, err := f.repo.users.GetByID(ctx, nil, resp.User.ID)
	require.NoError(t, err)
	claimable, err := f.linking.ListClaimable(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, claimable, "a linked degree is no longer claimable")

	var types []string
	for _, e := range f.publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, events.EventDegreeSubmitted)
	assert.Contains(t, types, events.EventDegreeLinked)
}

func TestAccountService_ConfirmEmail_DraftsDoNotLink(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.degrees.Upload(ctx, f.university.ID, &validator.DegreeCreateRequest{
		DegreeType:     "Bachelor of Science",
		Major:          "Computer Science",
		GraduationDate: "2025-06-15",
		StudentEmail:   "jane@foo.edu",
	})
	require.NoError(t, err)

	f.register(t, "jane@foo.edu")
	resp, err := f.service.ConfirmEmail(ctx, f.latestVerificationToken(t))
	require.NoError(t, err)
	assert.Nil(t, resp.LinkedDegreeID)
}

func TestAccountService_RegisterUniversityAdmin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	invitation := &models.InvitationToken{
		Email:        "dean@foo.edu",
		UniversityID: f.university.ID,
		Token:        "invite-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, f.repo.tokens.CreateInvitation(ctx, nil, invitation))

	resp, err := f.service.RegisterUniversityAdmin(ctx, &validator.RegisterUniversityAdminRequest{
		Token:    "invite-token",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "dean@foo.edu", resp.Email)
	assert.Equal(t, models.RoleUniversityAdmin, resp.Role)
	assert.True(t, resp.IsVerified, "invited admins start verified")
	require.NotNil(t, resp.UniversityID)
	assert.Equal(t, f.university.ID, *resp.UniversityID)

	// The invitation is consumed.
	_, err = f.service.RegisterUniversityAdmin(ctx, &validator.RegisterUniversityAdminRequest{
		Token:    "invite-token",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccountService_RegisterUniversityAdmin_ExpiredInvitation(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	invitation := &models.InvitationToken{
		Email:        "dean@foo.edu",
		UniversityID: f.university.ID,
		Token:        "stale-token",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.repo.tokens.CreateInvitation(ctx, nil, invitation))

	_, err := f.service.RegisterUniversityAdmin(ctx, &validator.RegisterUniversityAdminRequest{
		Token:    "stale-token",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccountService_Login(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "jane@foo.edu")

	resp, err := f.service.Login(context.Background(), &validator.LoginRequest{
		Email:    "JANE@foo.edu",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	assert.Equal(t, "jane@foo.edu", resp.User.Email)
}

func TestAccountService_Login_BadPassword(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "jane@foo.edu")

	_, err := f.service.Login(context.Background(), &validator.LoginRequest{
		Email:    "jane@foo.edu",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_Login_UnknownEmail(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.service.Login(context.Background(), &validator.LoginRequest{
		Email:    "ghost@foo.edu",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
