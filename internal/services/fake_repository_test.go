package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
)

// fakeRepository is an in-memory repositories.Repository for service tests.
type fakeRepository struct {
	degrees      *fakeDegreeRepo
	universities *fakeUniversityRepo
	users        *fakeUserRepo
	tokens       *fakeTokenRepo
	templates    *fakeTemplateRepo
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		degrees:      &fakeDegreeRepo{records: map[uint]*models.Degree{}},
		universities: &fakeUniversityRepo{records: map[uint]*models.University{}},
		users:        &fakeUserRepo{records: map[uint]*models.User{}},
		tokens:       &fakeTokenRepo{},
		templates:    &fakeTemplateRepo{records: map[uint]*models.Template{}},
	}
}

func (f *fakeRepository) Degree() repositories.DegreeRepository         { return f.degrees }
func (f *fakeRepository) University() repositories.UniversityRepository { return f.universities }
func (f *fakeRepository) User() repositories.UserRepository             { return f.users }
func (f *fakeRepository) Token() repositories.TokenRepository           { return f.tokens }
func (f *fakeRepository) Template() repositories.TemplateRepository     { return f.templates }
func (f *fakeRepository) Ping(ctx context.Context) error                { return nil }
func (f *fakeRepository) Close() error                                  { return nil }

// addUniversity seeds a verified university and returns it.
func (f *fakeRepository) addUniversity(name, domain string) *models.University {
	u := &models.University{
		Name:       name,
		Domain:     strings.ToLower(domain),
		IsVerified: true,
	}
	f.universities.create(u)
	return u
}

// ===== DEGREES =====

type fakeDegreeRepo struct {
	records map[uint]*models.Degree
	nextID  uint
}

func (r *fakeDegreeRepo) assignID(d *models.Degree) {
	r.nextID++
	d.ID = r.nextID
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
}

func (r *fakeDegreeRepo) Create(ctx context.Context, tx *gorm.DB, degree *models.Degree) error {
	degree.StudentEmail = models.NormalizeEmail(degree.StudentEmail)
	r.assignID(degree)
	clone := *degree
	r.records[degree.ID] = &clone
	return nil
}

func (r *fakeDegreeRepo) CreateBatch(ctx context.Context, tx *gorm.DB, degrees []*models.Degree) error {
	for _, d := range degrees {
		if err := r.Create(ctx, tx, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeDegreeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Degree, error) {
	d, ok := r.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *fakeDegreeRepo) GetByIDScoped(ctx context.Context, tx *gorm.DB, id, universityID uint) (*models.Degree, error) {
	d, ok := r.records[id]
	if !ok || d.UniversityID != universityID {
		return nil, repositories.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *fakeDegreeRepo) GetByIDsScoped(ctx context.Context, tx *gorm.DB, ids []uint, universityID uint) ([]*models.Degree, error) {
	var out []*models.Degree
	for _, id := range ids {
		if d, ok := r.records[id]; ok && d.UniversityID == universityID {
			clone := *d
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeDegreeRepo) List(ctx context.Context, tx *gorm.DB, universityID uint, filters repositories.DegreeFilters) ([]*models.Degree, int64, error) {
	var out []*models.Degree
	for _, d := range r.records {
		if d.UniversityID != universityID {
			continue
		}
		if filters.Status != nil && d.Status != *filters.Status {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeDegreeRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Degree, error) {
	var out []*models.Degree
	for _, d := range r.records {
		if d.UserID != nil && *d.UserID == ownerID {
			clone := *d
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDegreeRepo) claimable(universityID uint, email string) []*models.Degree {
	var out []*models.Degree
	for _, d := range r.records {
		if d.UniversityID == universityID &&
			d.StudentEmail == email &&
			d.Status == models.DegreeSubmitted &&
			d.UserID == nil {
			clone := *d
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeDegreeRepo) ListClaimable(ctx context.Context, tx *gorm.DB, universityID uint, email string) ([]*models.Degree, error) {
	return r.claimable(universityID, email), nil
}

func (r *fakeDegreeRepo) GetClaimable(ctx context.Context, tx *gorm.DB, universityID uint, email string) (*models.Degree, error) {
	matches := r.claimable(universityID, email)
	if len(matches) == 0 {
		return nil, repositories.ErrNotFound
	}
	return matches[0], nil
}

func (r *fakeDegreeRepo) Update(ctx context.Context, tx *gorm.DB, degree *models.Degree) error {
	if _, ok := r.records[degree.ID]; !ok {
		return repositories.ErrNotFound
	}
	degree.StudentEmail = models.NormalizeEmail(degree.StudentEmail)
	degree.UpdatedAt = time.Now()
	clone := *degree
	r.records[degree.ID] = &clone
	return nil
}

func (r *fakeDegreeRepo) UpdateStatusBatch(ctx context.Context, tx *gorm.DB, ids []uint, universityID uint, from, to models.DegreeStatus) (int64, error) {
	var affected int64
	for _, id := range ids {
		d, ok := r.records[id]
		if !ok || d.UniversityID != universityID || d.Status != from {
			continue
		}
		d.Status = to
		d.UpdatedAt = time.Now()
		affected++
	}
	return affected, nil
}

func (r *fakeDegreeRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeDegreeRepo) CountByStatus(ctx context.Context, tx *gorm.DB, universityID uint, status models.DegreeStatus) (int64, error) {
	var count int64
	for _, d := range r.records {
		if d.UniversityID == universityID && d.Status == status {
			count++
		}
	}
	return count, nil
}

// ===== UNIVERSITIES =====

type fakeUniversityRepo struct {
	records map[uint]*models.University
	nextID  uint
}

func (r *fakeUniversityRepo) create(u *models.University) {
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	clone := *u
	r.records[u.ID] = &clone
}

func (r *fakeUniversityRepo) Create(ctx context.Context, tx *gorm.DB, u *models.University) error {
	u.Domain = models.NormalizeEmail(u.Domain)
	r.create(u)
	return nil
}

func (r *fakeUniversityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.University, error) {
	u, ok := r.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUniversityRepo) GetVerifiedByID(ctx context.Context, tx *gorm.DB, id uint) (*models.University, error) {
	u, ok := r.records[id]
	if !ok || !u.IsVerified {
		return nil, repositories.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUniversityRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.University, error) {
	for _, u := range r.records {
		if u.Name == name {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUniversityRepo) GetByDomain(ctx context.Context, tx *gorm.DB, domain string) (*models.University, error) {
	for _, u := range r.records {
		if u.Domain == strings.ToLower(domain) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUniversityRepo) ListVerified(ctx context.Context, tx *gorm.DB) ([]*models.University, error) {
	var out []*models.University
	for _, u := range r.records {
		if u.IsVerified {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeUniversityRepo) Update(ctx context.Context, tx *gorm.DB, u *models.University) error {
	if _, ok := r.records[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *u
	r.records[u.ID] = &clone
	return nil
}

// ===== USERS =====

type fakeUserRepo struct {
	records map[uint]*models.User
	nextID  uint
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	clone := *u
	r.records[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	u, ok := r.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.records {
		if u.Email == models.NormalizeEmail(email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) ListAdminsByUniversity(ctx context.Context, tx *gorm.DB, universityID uint) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.records {
		if u.Role == models.RoleUniversityAdmin && u.UniversityID != nil && *u.UniversityID == universityID {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, u *models.User) error {
	if _, ok := r.records[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *u
	r.records[u.ID] = &clone
	return nil
}

// ===== TOKENS =====

type fakeTokenRepo struct {
	verifications []*models.VerificationToken
	invitations   []*models.InvitationToken
	nextID        uint
}

func (r *fakeTokenRepo) CreateVerification(ctx context.Context, tx *gorm.DB, t *models.VerificationToken) error {
	r.nextID++
	t.ID = r.nextID
	clone := *t
	r.verifications = append(r.verifications, &clone)
	return nil
}

func (r *fakeTokenRepo) GetValidVerification(ctx context.Context, tx *gorm.DB, token string) (*models.VerificationToken, error) {
	for _, t := range r.verifications {
		if t.Token == token && t.ExpiresAt.After(time.Now()) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeTokenRepo) DeleteVerification(ctx context.Context, tx *gorm.DB, id uint) error {
	for i, t := range r.verifications {
		if t.ID == id {
			r.verifications = append(r.verifications[:i], r.verifications[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeTokenRepo) CreateInvitation(ctx context.Context, tx *gorm.DB, t *models.InvitationToken) error {
	r.nextID++
	t.ID = r.nextID
	clone := *t
	r.invitations = append(r.invitations, &clone)
	return nil
}

func (r *fakeTokenRepo) GetValidInvitation(ctx context.Context, tx *gorm.DB, token string) (*models.InvitationToken, error) {
	for _, t := range r.invitations {
		if t.Token == token && t.ExpiresAt.After(time.Now()) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeTokenRepo) DeleteInvitation(ctx context.Context, tx *gorm.DB, id uint) error {
	for i, t := range r.invitations {
		if t.ID == id {
			r.invitations = append(r.invitations[:i], r.invitations[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	var deleted int64
	var keptV []*models.VerificationToken
	for _, t := range r.verifications {
		if t.ExpiresAt.After(now) {
			keptV = append(keptV, t)
		} else {
			deleted++
		}
	}
	r.verifications = keptV

	var keptI []*models.InvitationToken
	for _, t := range r.invitations {
		if t.ExpiresAt.After(now) {
			keptI = append(keptI, t)
		} else {
			deleted++
		}
	}
	r.invitations = keptI
	return deleted, nil
}

// ===== TEMPLATES =====

type fakeTemplateRepo struct {
	records map[uint]*models.Template
	nextID  uint
}

func (r *fakeTemplateRepo) Create(ctx context.Context, tx *gorm.DB, t *models.Template) error {
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	clone := *t
	r.records[t.ID] = &clone
	return nil
}

func (r *fakeTemplateRepo) GetByIDScoped(ctx context.Context, tx *gorm.DB, id, universityID uint) (*models.Template, error) {
	t, ok := r.records[id]
	if !ok || t.UniversityID != universityID {
		return nil, repositories.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTemplateRepo) ListByUniversity(ctx context.Context, tx *gorm.DB, universityID uint) ([]*models.Template, error) {
	var out []*models.Template
	for _, t := range r.records {
		if t.UniversityID == universityID {
			clone := *t
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, tx *gorm.DB, t *models.Template) error {
	if _, ok := r.records[t.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *t
	r.records[t.ID] = &clone
	return nil
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.records, id)
	return nil
}
