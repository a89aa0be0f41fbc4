package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type templateService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	deps      Dependencies
}

func NewTemplateService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, deps Dependencies) TemplateService {
	return &templateService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		deps:      deps,
	}
}

func (s *templateService) Create(ctx context.Context, universityID uint, req *validator.TemplateUpsertRequest, filename string, file io.Reader) (*TemplateResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	path, err := s.deps.Files.Save("templates", filename, file)
	if err != nil {
		return nil, fmt.Errorf("failed to store template file: %w", err)
	}

	template := &models.Template{
		UniversityID: universityID,
		TemplateName: req.TemplateName,
		FilePath:     path,
	}
	if err := s.repo.Template().Create(ctx, nil, template); err != nil {
		if rmErr := s.deps.Files.Remove(path); rmErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove orphaned template file",
				"error", rmErr,
				"path", path)
		}
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.logger.InfoContext(ctx, "Template created",
		"template_id", template.ID,
		"university_id", universityID)

	return templateToResponse(template), nil
}

func (s *templateService) List(ctx context.Context, universityID uint) ([]*TemplateResponse, error) {
	templates, err := s.repo.Template().ListByUniversity(ctx, nil, universityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	out := make([]*TemplateResponse, len(templates))
	for i, t := range templates {
		out[i] = templateToResponse(t)
	}
	return out, nil
}

func (s *templateService) Update(ctx context.Context, universityID, id uint, req *validator.TemplateUpsertRequest, filename string, file io.Reader) (*TemplateResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	template, err := s.repo.Template().GetByIDScoped(ctx, nil, id, universityID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	template.TemplateName = req.TemplateName

	var previous string
	if file != nil {
		path, err := s.deps.Files.Save("templates", filename, file)
		if err != nil {
			return nil, fmt.Errorf("failed to store template file: %w", err)
		}
		previous = template.FilePath
		template.FilePath = path
	}

	if err := s.repo.Template().Update(ctx, nil, template); err != nil {
		if previous != "" {
			if rmErr := s.deps.Files.Remove(template.FilePath); rmErr != nil {
				s.logger.WarnContext(ctx, "Failed to remove orphaned template file",
					"error", rmErr,
					"path", template.FilePath)
			}
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	if previous != "" {
		if err := s.deps.Files.Remove(previous); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove replaced template file",
				"error", err,
				"path", previous)
		}
	}

	s.logger.InfoContext(ctx, "Template updated",
		"template_id", template.ID,
		"university_id", universityID)

	return templateToResponse(template), nil
}

func (s *templateService) Delete(ctx context.Context, universityID, id uint) error {
	template, err := s.repo.Template().GetByIDScoped(ctx, nil, id, universityID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to load template: %w", err)
	}

	if err := s.repo.Template().Delete(ctx, nil, template.ID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}

	if err := s.deps.Files.Remove(template.FilePath); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove template file",
			"error", err,
			"path", template.FilePath)
	}
	return nil
}
