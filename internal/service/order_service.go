package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"tussles/internal/apperror"
	"tussles/internal/authz"
	"tussles/internal/finance"
	"tussles/internal/lifecycle"
	"tussles/internal/model"
	"tussles/internal/repository"
	"tussles/internal/storage"
	"tussles/internal/visibility"
	ws "tussles/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventPublisher pushes live events to connected clients.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

type OrderService interface {
	CreateOrder(ctx context.Context, actor *model.User, form lifecycle.OrderForm, image *multipart.FileHeader) (*model.Order, error)
	ListOrders(ctx context.Context, viewer *model.User, status string) ([]model.Order, error)
	ApproveOrder(ctx context.Context, actor *model.User, id string) (*model.Order, error)
	CompletedOrders(ctx context.Context) ([]model.Order, error)
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	companyRepo repository.CompanyRepository
	revenueRepo repository.RevenueRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	uploader    *storage.ImageUploader
	publisher   EventPublisher
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	companyRepo repository.CompanyRepository,
	revenueRepo repository.RevenueRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	uploader *storage.ImageUploader,
	publisher EventPublisher,
) OrderService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		companyRepo: companyRepo,
		revenueRepo: revenueRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		uploader:    uploader,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder validates the form and optional image completely before it
// uploads anything or writes a row.
func (s *orderService) CreateOrder(ctx context.Context, actor *model.User, form lifecycle.OrderForm, image *multipart.FileHeader) (*model.Order, error) {
	if actor == nil {
		return nil, apperror.Unauthorized("Authentication required")
	}
	now := s.now()

	input, err := lifecycle.ValidateOrderForm(form, now)
	if err != nil {
		return nil, err
	}

	var img *storage.ImageFile
	if image != nil {
		if img, err = storage.ValidateImage(image); err != nil {
			return nil, err
		}
	}

	if _, err := s.companyRepo.FindByID(ctx, input.CompanyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Company not found")
		}
		return nil, apperror.Upstream("Failed to load company", err)
	}

	var stored *storage.StoredImage
	var imageURL *string
	if img != nil {
		if stored, err = s.uploader.Store(ctx, img); err != nil {
			return nil, err
		}
		imageURL = &stored.URL
	}

	order := lifecycle.NewOrder(input, actor, imageURL, now)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"company_id":     order.CompanyID,
			"quantity":       order.Quantity,
			"price_per_unit": order.PricePerUnit,
			"total_amount":   order.TotalAmount,
			"has_image":      imageURL != nil,
		})
		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionCreateOrder,
			EntityID:   order.ID.String(),
			EntityName: "order",
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		s.uploader.Discard(context.WithoutCancel(ctx), stored)
		return nil, apperror.Upstream("Failed to create order", err)
	}

	created, err := s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, apperror.Upstream("Failed to load created order", err)
	}

	s.publisher.Publish(ws.EventOrderCreated, created)
	return created, nil
}

// ListOrders returns what viewer may see, newest first.
func (s *orderService) ListOrders(ctx context.Context, viewer *model.User, status string) ([]model.Order, error) {
	if viewer == nil {
		return nil, apperror.Unauthorized("Authentication required")
	}

	orders, err := s.orderRepo.List(ctx, status)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch orders", err)
	}
	return visibility.Filter(orders, viewer, status, s.now()), nil
}

// ApproveOrder reports Forbidden, then NotFound, then InvalidState, in that
// order of precedence.
func (s *orderService) ApproveOrder(ctx context.Context, actor *model.User, id string) (*model.Order, error) {
	if err := authz.Require(actor, model.RoleOwner); err != nil {
		return nil, err
	}

	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("Order not found")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Order not found")
		}
		return nil, apperror.Upstream("Failed to fetch order", err)
	}

	if err := lifecycle.Approve(order, actor, s.now()); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.MarkApproved(txCtx, order); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"from":         model.OrderStatusAwaitingApproval,
			"to":           model.OrderStatusCompleted,
			"total_amount": order.TotalAmount,
		})
		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionApproveOrder,
			EntityID:   order.ID.String(),
			EntityName: "order",
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if errors.Is(err, repository.ErrOrderNotAwaiting) {
		return nil, apperror.InvalidState(fmt.Sprintf("Order cannot be approved: current status is %s", model.OrderStatusCompleted))
	}
	if err != nil {
		return nil, apperror.Upstream("Failed to approve order", err)
	}

	approved, err := s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, apperror.Upstream("Failed to load approved order", err)
	}

	s.publisher.Publish(ws.EventOrderApproved, approved)
	return approved, nil
}

// CompletedOrders is the owner's approval history, newest approval first.
func (s *orderService) CompletedOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListCompleted(ctx, visibility.CompletedHistoryLimit)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch completed orders", err)
	}
	return visibility.RecentlyApproved(orders, visibility.CompletedHistoryLimit), nil
}

func (s *orderService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	rows, err := s.revenueRepo.Summary(ctx)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch dashboard stats", err)
	}
	stats := finance.DashboardStats(rows)
	return &stats, nil
}
