package validator

// DegreeCreateRequest represents a single degree submission by a university
// admin. GraduationDate is the wire-format date string; parsing and the
// domain-match check happen in the business validator and service layer.
type DegreeCreateRequest struct {
	DegreeType     string `json:"degree_type" form:"degree_type" validate:"required,max=100"`
	Major          string `json:"major" form:"major" validate:"required,max=200"`
	GraduationDate string `json:"graduation_date" form:"graduation_date" validate:"required"`
	StudentEmail   string `json:"student_email" form:"student_email" validate:"required,email"`
}

// DegreeUpdateRequest mutates a draft. Nil fields are left unchanged.
type DegreeUpdateRequest struct {
	DegreeType     *string `json:"degree_type" validate:"omitempty,max=100"`
	Major          *string `json:"major" validate:"omitempty,max=200"`
	GraduationDate *string `json:"graduation_date"`
	StudentEmail   *string `json:"student_email" validate:"omitempty,email"`
}

// ConfirmDegreesRequest targets a batch of degree ids for one confirmation
// step.
type ConfirmDegreesRequest struct {
	DegreeIDs        []uint `json:"degree_ids" validate:"required,min=1,dive,required"`
	ConfirmationStep int    `json:"confirmation_step" validate:"required,oneof=1 2"`
}

// RevertDegreesRequest cancels a first-step acknowledgment for a batch.
type RevertDegreesRequest struct {
	DegreeIDs []uint `json:"degree_ids" validate:"required,min=1,dive,required"`
}

// RegisterStudentRequest is the student sign-up payload.
type RegisterStudentRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	UniversityID uint   `json:"university_id" validate:"required"`
}

// LoginRequest authenticates any account role.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterUniversityAdminRequest consumes an invitation token.
type RegisterUniversityAdminRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RegisterUniversityRequest onboards a university (platform admin only).
type RegisterUniversityRequest struct {
	Name                 string  `json:"name" validate:"required,max=200"`
	Domain               string  `json:"domain" validate:"required,startswith=@,max=255"`
	AccreditationDetails *string `json:"accreditation_details" validate:"omitempty,max=5000"`
}

// InviteUniversityAdminRequest issues an invitation token for a university.
type InviteUniversityAdminRequest struct {
	Email        string `json:"email" validate:"required,email"`
	UniversityID uint   `json:"university_id" validate:"required"`
}

// TemplateUpsertRequest names a certificate template; the file arrives as
// multipart alongside it.
type TemplateUpsertRequest struct {
	TemplateName string `json:"template_name" form:"template_name" validate:"required,max=200"`
}
