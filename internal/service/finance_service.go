package service

import (
	"context"
	"time"

	"tussles/internal/apperror"
	"tussles/internal/finance"
	"tussles/internal/model"
	"tussles/internal/repository"
)

// FinanceService feeds freshly fetched rows into the finance package.
type FinanceService interface {
	NetProfit(ctx context.Context, period finance.Period, rng finance.Range) (*finance.NetProfitReport, error)
	ProfitTrends(ctx context.Context, period finance.Period, count int) ([]finance.TrendPoint, error)
	Breakeven(ctx context.Context) (*finance.BreakevenReport, error)
	CompanyProfits(ctx context.Context) ([]finance.CompanyProfit, error)
}

type financeService struct {
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	now         func() time.Time
}

func NewFinanceService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, companyRepo repository.CompanyRepository) FinanceService {
	return &financeService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *financeService) NetProfit(ctx context.Context, period finance.Period, rng finance.Range) (*finance.NetProfitReport, error) {
	orders, users, err := s.load(ctx, rng)
	if err != nil {
		return nil, err
	}
	report := finance.NetProfit(orders, users, period, rng)
	return &report, nil
}

func (s *financeService) ProfitTrends(ctx context.Context, period finance.Period, count int) ([]finance.TrendPoint, error) {
	orders, users, err := s.load(ctx, finance.Range{})
	if err != nil {
		return nil, err
	}
	return finance.ProfitTrends(orders, users, period, count), nil
}

func (s *financeService) Breakeven(ctx context.Context) (*finance.BreakevenReport, error) {
	orders, err := s.orderRepo.ListRecentlyCompleted(ctx, finance.BreakevenSampleSize)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch completed orders", err)
	}
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch salaries", err)
	}
	report := finance.Breakeven(orders, users, s.now())
	return &report, nil
}

func (s *financeService) CompanyProfits(ctx context.Context) ([]finance.CompanyProfit, error) {
	orders, err := s.orderRepo.ListCompletedBetween(ctx, nil, nil)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch completed orders", err)
	}
	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch companies", err)
	}
	return finance.CompanyProfits(orders, companies), nil
}

func (s *financeService) load(ctx context.Context, rng finance.Range) ([]model.Order, []model.User, error) {
	orders, err := s.orderRepo.ListCompletedBetween(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, nil, apperror.Upstream("Failed to fetch completed orders", err)
	}
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, nil, apperror.Upstream("Failed to fetch salaries", err)
	}
	return orders, users, nil
}
