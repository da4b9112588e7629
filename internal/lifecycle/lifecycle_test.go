package lifecycle

import (
	"strings"
	"testing"
	"time"

	"tussles/internal/apperror"
	"tussles/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func validForm() OrderForm {
	return OrderForm{
		CompanyID:    uuid.NewString(),
		Quantity:     "100",
		PricePerUnit: "50.00",
		DueDate:      "2026-04-01",
		Notes:        "Blue bamboo handles",
	}
}

func TestValidateOrderForm_Success(t *testing.T) {
	form := validForm()

	input, err := ValidateOrderForm(form, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, form.CompanyID, input.CompanyID.String())
	assert.Equal(t, 100, input.Quantity)
	assert.True(t, decimal.RequireFromString("50").Equal(input.PricePerUnit))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), input.DueDate)
	assert.True(t, input.MaterialCost.IsZero())
	assert.True(t, input.LaborCost.IsZero())
}

func TestValidateOrderForm_DefaultsDueDateToNow(t *testing.T) {
	form := validForm()
	form.DueDate = ""

	input, err := ValidateOrderForm(form, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, input.DueDate)
}

func TestValidateOrderForm_TruncatesNotes(t *testing.T) {
	form := validForm()
	form.Notes = strings.Repeat("ü", MaxNotesChars+250)

	input, err := ValidateOrderForm(form, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, MaxNotesChars, len([]rune(input.Notes)))
}

func TestValidateOrderForm_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *OrderForm)
		field  string
	}{
		{"missing company", func(f *OrderForm) { f.CompanyID = "" }, "company_id"},
		{"malformed company", func(f *OrderForm) { f.CompanyID = "acme" }, "company_id"},
		{"missing quantity", func(f *OrderForm) { f.Quantity = "" }, "quantity"},
		{"zero quantity", func(f *OrderForm) { f.Quantity = "0" }, "quantity"},
		{"fractional quantity", func(f *OrderForm) { f.Quantity = "2.5" }, "quantity"},
		{"quantity above cap", func(f *OrderForm) { f.Quantity = "100000001" }, "quantity"},
		{"missing price", func(f *OrderForm) { f.PricePerUnit = "" }, "price_per_unit"},
		{"zero price", func(f *OrderForm) { f.PricePerUnit = "0" }, "price_per_unit"},
		{"negative price", func(f *OrderForm) { f.PricePerUnit = "-3" }, "price_per_unit"},
		{"price above cap", func(f *OrderForm) { f.PricePerUnit = "10000000.01" }, "price_per_unit"},
		{"unparseable price", func(f *OrderForm) { f.PricePerUnit = "ten" }, "price_per_unit"},
		{"sub-cent price", func(f *OrderForm) { f.PricePerUnit = "0.333" }, "price_per_unit"},
		{"price rounding to zero", func(f *OrderForm) { f.PricePerUnit = "0.001" }, "price_per_unit"},
		{"sub-cent material cost", func(f *OrderForm) { f.MaterialCost = "1.005" }, "material_cost"},
		{"sub-cent labor cost", func(f *OrderForm) { f.LaborCost = "0.0001" }, "labor_cost"},
		{"bad due date", func(f *OrderForm) { f.DueDate = "31/02/2026" }, "due_date"},
		{"negative material cost", func(f *OrderForm) { f.MaterialCost = "-1" }, "material_cost"},
		{"bad labor cost", func(f *OrderForm) { f.LaborCost = "lots" }, "labor_cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			_, err := ValidateOrderForm(form, fixedNow)
			require.Error(t, err)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestValidateOrderForm_ReportsAllFields(t *testing.T) {
	_, err := ValidateOrderForm(OrderForm{Quantity: "0", PricePerUnit: "-1"}, fixedNow)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Len(t, appErr.Fields, 3)
	assert.Contains(t, appErr.Fields, "company_id")
	assert.Contains(t, appErr.Fields, "quantity")
	assert.Contains(t, appErr.Fields, "price_per_unit")
}

func TestValidateOrderForm_Boundaries(t *testing.T) {
	form := validForm()
	form.Quantity = "100000000"
	form.PricePerUnit = "10000000"

	input, err := ValidateOrderForm(form, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, input.Quantity)
}

func TestValidateOrderForm_MoneyScale(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"0.01", "0.01"},
		{"50.000", "50.00"},
		{"19.9", "19.90"},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			form := validForm()
			form.PricePerUnit = tt.price
			form.MaterialCost = "2.500"

			input, err := ValidateOrderForm(form, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, input.PricePerUnit.StringFixed(2))
			assert.True(t, decimal.RequireFromString("2.5").Equal(input.MaterialCost))
		})
	}

	form := validForm()
	form.PricePerUnit = "0.333"
	_, err := ValidateOrderForm(form, fixedNow)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "price_per_unit must have at most 2 decimal places", appErr.Fields["price_per_unit"])
}

func TestNewOrder_TotalAmount(t *testing.T) {
	actor := &model.User{ID: uuid.New(), Role: model.RoleEmployee}

	tests := []struct {
		quantity string
		price    string
		want     string
	}{
		{"100", "50.00", "5000.00"},
		{"3", "0.10", "0.30"},
		{"7", "19.99", "139.93"},
		{"100000000", "10000000", "1000000000000000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.quantity+"x"+tt.price, func(t *testing.T) {
			form := validForm()
			form.Quantity = tt.quantity
			form.PricePerUnit = tt.price

			input, err := ValidateOrderForm(form, fixedNow)
			require.NoError(t, err)

			order := NewOrder(input, actor, nil, fixedNow)
			assert.Equal(t, tt.want, order.TotalAmount.StringFixed(2))
			assert.Equal(t, model.OrderStatusAwaitingApproval, order.Status)
			assert.Equal(t, actor.ID, order.CreatedBy)
			assert.Nil(t, order.ApprovedBy)
			assert.Nil(t, order.ApprovedAt)
			assert.Nil(t, order.CompletedAt)
		})
	}
}

func TestApprove(t *testing.T) {
	owner := &model.User{ID: uuid.New(), Role: model.RoleOwner}
	order := &model.Order{ID: uuid.New(), Status: model.OrderStatusAwaitingApproval}

	require.NoError(t, Approve(order, owner, fixedNow))

	assert.Equal(t, model.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.ApprovedBy)
	assert.Equal(t, owner.ID, *order.ApprovedBy)
	require.NotNil(t, order.ApprovedAt)
	require.NotNil(t, order.CompletedAt)
	assert.Equal(t, fixedNow, *order.ApprovedAt)
	assert.Equal(t, fixedNow, *order.CompletedAt)
}

func TestApprove_SecondAttemptFailsWithoutChanges(t *testing.T) {
	owner := &model.User{ID: uuid.New(), Role: model.RoleOwner}
	order := &model.Order{ID: uuid.New(), Status: model.OrderStatusAwaitingApproval}
	require.NoError(t, Approve(order, owner, fixedNow))

	snapshot := *order
	otherOwner := &model.User{ID: uuid.New(), Role: model.RoleOwner}

	err := Approve(order, otherOwner, fixedNow.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Contains(t, err.Error(), model.OrderStatusCompleted)
	assert.Equal(t, snapshot, *order)
}

func TestApprove_RequiresOwner(t *testing.T) {
	employee := &model.User{ID: uuid.New(), Role: model.RoleEmployee}
	order := &model.Order{ID: uuid.New(), Status: model.OrderStatusAwaitingApproval}

	err := Approve(order, employee, fixedNow)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	assert.Equal(t, model.OrderStatusAwaitingApproval, order.Status)
	assert.Nil(t, order.ApprovedBy)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(model.OrderStatusAwaitingApproval, model.OrderStatusCompleted))
	assert.False(t, CanTransition(model.OrderStatusCompleted, model.OrderStatusAwaitingApproval))
	assert.False(t, CanTransition(model.OrderStatusCompleted, model.OrderStatusCompleted))
	assert.False(t, CanTransition("cancelled", model.OrderStatusCompleted))
}
