package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tussles/internal/lifecycle"
	"tussles/internal/model"
	"tussles/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrder(company *model.Company, creator *model.User, total string, createdAt time.Time) *model.Order {
	return &model.Order{
		CompanyID:    company.ID,
		Quantity:     1,
		PricePerUnit: decimal.RequireFromString(total),
		TotalAmount:  decimal.RequireFromString(total),
		MaterialCost: decimal.Zero,
		LaborCost:    decimal.Zero,
		DueDate:      createdAt,
		Status:       model.OrderStatusAwaitingApproval,
		CreatedBy:    creator.ID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func approve(order *model.Order, owner *model.User, at time.Time) {
	order.Status = model.OrderStatusCompleted
	order.ApprovedBy = &owner.ID
	order.ApprovedAt = &at
	order.CompletedAt = &at
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	employee := testutil.CreateUser(t, db, model.RoleEmployee, "")
	company := testutil.CreateCompany(t, db, "Acme")

	order := newOrder(company, employee, "5000", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))
	require.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5000").Equal(found.TotalAmount))
	require.NotNil(t, found.Company)
	assert.Equal(t, "Acme", found.Company.Name)
	require.NotNil(t, found.Creator)
	assert.Equal(t, employee.ID, found.Creator.ID)
	assert.Nil(t, found.Approver)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestOrderRepository_ListFiltersAndSorts(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "")
	company := testutil.CreateCompany(t, db, "Acme")
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	older := newOrder(company, owner, "10", base)
	newer := newOrder(company, owner, "20", base.Add(time.Hour))
	done := newOrder(company, owner, "30", base.Add(30*time.Minute))
	approve(done, owner, base.Add(2*time.Hour))
	for _, o := range []*model.Order{older, newer, done} {
		require.NoError(t, repo.Create(ctx, o))
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, done.ID, all[1].ID)
	assert.Equal(t, older.ID, all[2].ID)

	awaiting, err := repo.List(ctx, model.OrderStatusAwaitingApproval)
	require.NoError(t, err)
	assert.Len(t, awaiting, 2)

	completed, err := repo.ListCompleted(ctx, 50)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)
	require.NotNil(t, completed[0].Approver)
}

func TestOrderRepository_TotalSurvivesRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	employee := testutil.CreateUser(t, db, model.RoleEmployee, "")
	company := testutil.CreateCompany(t, db, "Acme")
	now := time.Now().UTC()

	form := lifecycle.OrderForm{CompanyID: company.ID.String(), Quantity: "3", PricePerUnit: "0.33"}
	input, err := lifecycle.ValidateOrderForm(form, now)
	require.NoError(t, err)

	order := lifecycle.NewOrder(input, employee, nil, now)
	require.NoError(t, repo.Create(ctx, order))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.33", stored.PricePerUnit.StringFixed(2))
	assert.Equal(t, "0.99", stored.TotalAmount.StringFixed(2))
	assert.True(t, stored.TotalAmount.Equal(stored.PricePerUnit.Mul(decimal.NewFromInt(int64(stored.Quantity)))))

	// Values the columns would round are refused before they reach storage.
	for _, price := range []string{"0.333", "0.001"} {
		form.PricePerUnit = price
		_, err := lifecycle.ValidateOrderForm(form, now)
		assert.Error(t, err, price)
	}
}

func TestOrderRepository_RelationsOmitSalary(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "3000")
	employee := testutil.CreateUser(t, db, model.RoleEmployee, "2000")
	company := testutil.CreateCompany(t, db, "Acme")

	order := newOrder(company, employee, "100", time.Now().UTC())
	approve(order, owner, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Creator)
	require.NotNil(t, stored.Approver)
	assert.Equal(t, model.RoleOwner, stored.Approver.Role)
	assert.Equal(t, employee.Email, stored.Creator.Email)

	body, err := json.Marshal(stored)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "salary")
	assert.NotContains(t, string(body), "is_active")
}

func TestOrderRepository_ListCompletedPutsUnapprovedLast(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "")
	company := testutil.CreateCompany(t, db, "Acme")
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	// Completed outside the approval flow, so approved_at is NULL.
	external := newOrder(company, owner, "10", base)
	external.Status = model.OrderStatusCompleted
	completedAt := base.Add(3 * time.Hour)
	external.CompletedAt = &completedAt

	approved := newOrder(company, owner, "20", base)
	approve(approved, owner, base.Add(time.Hour))

	require.NoError(t, repo.Create(ctx, external))
	require.NoError(t, repo.Create(ctx, approved))

	latest, err := repo.ListCompleted(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, approved.ID, latest[0].ID)

	all, err := repo.ListCompleted(ctx, 50)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, external.ID, all[1].ID)
}

func TestOrderRepository_CreateGuardsStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "")
	company := testutil.CreateCompany(t, db, "Acme")

	unset := newOrder(company, owner, "10", time.Now().UTC())
	unset.Status = ""
	require.NoError(t, repo.Create(ctx, unset))
	assert.Equal(t, model.OrderStatusAwaitingApproval, unset.Status)

	shipped := newOrder(company, owner, "10", time.Now().UTC())
	shipped.Status = "shipped"
	require.Error(t, repo.Create(ctx, shipped))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOrderRepository_MarkApprovedOnlyOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "")
	otherOwner := testutil.CreateUser(t, db, model.RoleOwner, "")
	company := testutil.CreateCompany(t, db, "Acme")
	order := newOrder(company, owner, "100", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	first := *order
	approve(&first, owner, time.Now().UTC())
	require.NoError(t, repo.MarkApproved(ctx, &first))

	// A second approver working from a stale copy loses.
	second := *order
	approve(&second, otherOwner, time.Now().UTC().Add(time.Minute))
	assert.ErrorIs(t, repo.MarkApproved(ctx, &second), ErrOrderNotAwaiting)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, owner.ID, *stored.ApprovedBy)
}

func TestOrderRepository_CompletedRanges(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "")
	company := testutil.CreateCompany(t, db, "Acme")
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		o := newOrder(company, owner, "100", base)
		approve(o, owner, base.AddDate(0, i, 0))
		require.NoError(t, repo.Create(ctx, o))
	}
	require.NoError(t, repo.Create(ctx, newOrder(company, owner, "100", base)))

	all, err := repo.ListCompletedBetween(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	start := base.AddDate(0, 1, 0)
	end := base.AddDate(0, 2, 0)
	ranged, err := repo.ListCompletedBetween(ctx, &start, &end)
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	recent, err := repo.ListRecentlyCompleted(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].CompletedAt.After(*recent[1].CompletedAt))
}

func TestRevenueRepository_Summary(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	orders := NewOrderRepository(db)
	revenue := NewRevenueRepository(db)

	empty, err := revenue.Summary(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "")
	company := testutil.CreateCompany(t, db, "Acme")
	now := time.Now().UTC()

	require.NoError(t, orders.Create(ctx, newOrder(company, owner, "100", now)))
	require.NoError(t, orders.Create(ctx, newOrder(company, owner, "250", now)))
	done := newOrder(company, owner, "1000", now)
	approve(done, owner, now)
	require.NoError(t, orders.Create(ctx, done))

	rows, err := revenue.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byStatus := map[string]model.RevenueSummaryRow{}
	for _, row := range rows {
		byStatus[row.Status] = row
	}
	assert.Equal(t, int64(2), byStatus[model.OrderStatusAwaitingApproval].OrderCount)
	assert.True(t, decimal.NewFromInt(350).Equal(byStatus[model.OrderStatusAwaitingApproval].TotalRevenue))
	assert.Equal(t, int64(1), byStatus[model.OrderStatusCompleted].OrderCount)
	assert.True(t, decimal.NewFromInt(1000).Equal(byStatus[model.OrderStatusCompleted].TotalRevenue))
}

func TestCompanyRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewCompanyRepository(db)

	require.NoError(t, repo.Create(ctx, &model.Company{Name: "zenith"}))
	require.NoError(t, repo.Create(ctx, &model.Company{Name: "Acme"}))
	require.NoError(t, repo.Create(ctx, &model.Company{Name: "Bolt"}))

	found, err := repo.FindByNameFold(ctx, "  ACME ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", found.Name)

	_, err = repo.FindByNameFold(ctx, "Acme Ltd")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Acme", list[0].Name)
	assert.Equal(t, "Bolt", list[1].Name)
	assert.Equal(t, "zenith", list[2].Name)
}

func TestUserRepository_ListActive(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	active := testutil.CreateUser(t, db, model.RoleEmployee, "2000")
	inactive := &model.User{Email: "gone@tussles.test", Role: model.RoleEmployee, IsActive: false}
	require.NoError(t, repo.Create(ctx, inactive))

	users, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, active.ID, users[0].ID)
	assert.True(t, decimal.NewFromInt(2000).Equal(users[0].MonthlySalary()))

	found, err := repo.FindByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestAuditRepository_Filters(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewAuditRepository(db)

	owner := testutil.CreateUser(t, db, model.RoleOwner, "")
	entity := uuid.NewString()
	require.NoError(t, repo.Log(ctx, &model.AuditLog{UserID: &owner.ID, Action: model.ActionCreateOrder, EntityID: entity}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{UserID: &owner.ID, Action: model.ActionApproveOrder, EntityID: entity}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{UserID: &owner.ID, Action: model.ActionCreateCompany, EntityID: uuid.NewString()}))

	all, total, err := repo.List(ctx, AuditFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)

	forEntity, total, err := repo.List(ctx, AuditFilter{EntityID: entity}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, forEntity, 2)
	require.NotNil(t, forEntity[0].User)

	approvals, total, err := repo.List(ctx, AuditFilter{Action: model.ActionApproveOrder}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, approvals, 1)
}

func TestTransactionManager_RollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	tx := NewTransactionManager(db)
	companies := NewCompanyRepository(db)

	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := companies.Create(txCtx, &model.Company{Name: "Ghost"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = companies.FindByNameFold(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
