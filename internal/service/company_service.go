package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"tussles/internal/apperror"
	"tussles/internal/model"
	"tussles/internal/repository"

	"gorm.io/gorm"
)

type CreateCompanyRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
}

type CompanyService interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	// CreateCompany returns the existing company when the name is already
	// taken ignoring case; created reports which happened.
	CreateCompany(ctx context.Context, actor *model.User, req CreateCompanyRequest) (company *model.Company, created bool, err error)
}

type companyService struct {
	companyRepo repository.CompanyRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCompanyService(companyRepo repository.CompanyRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) CompanyService {
	return &companyService{companyRepo: companyRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *companyService) ListCompanies(ctx context.Context) ([]model.Company, error) {
	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch companies", err)
	}
	return companies, nil
}

func (s *companyService) CreateCompany(ctx context.Context, actor *model.User, req CreateCompanyRequest) (*model.Company, bool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, apperror.FieldError("name", "Company name is required")
	}

	existing, err := s.findByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	company := &model.Company{
		Name:          name,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
	}
	if actor != nil {
		company.CreatedBy = &actor.ID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.companyRepo.Create(txCtx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     company.CreatedBy,
			Action:     model.ActionCreateCompany,
			EntityID:   company.ID.String(),
			EntityName: company.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		// Lost a race against a concurrent create of the same name.
		if winner, findErr := s.findByName(ctx, name); findErr == nil && winner != nil {
			log.Printf("Company %q was created concurrently, returning existing row", name)
			return winner, false, nil
		}
		return nil, false, apperror.Upstream("Failed to create company", err)
	}

	return company, true, nil
}

func (s *companyService) findByName(ctx context.Context, name string) (*model.Company, error) {
	company, err := s.companyRepo.FindByNameFold(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Upstream("Failed to look up company", err)
	}
	return company, nil
}
