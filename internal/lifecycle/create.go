package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"tussles/internal/apperror"
	"tussles/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinQuantity   = 1
	MaxQuantity   = 100_000_000
	MaxNotesChars = 1000
)

var maxPricePerUnit = decimal.NewFromInt(10_000_000)

// moneyPlaces matches the scale of the money columns on orders.
const moneyPlaces = 2

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// OrderForm is the raw multipart form for a new order.
type OrderForm struct {
	CompanyID    string `form:"company_id" validate:"required,uuid"`
	Quantity     string `form:"quantity" validate:"required"`
	PricePerUnit string `form:"price_per_unit" validate:"required"`
	DueDate      string `form:"due_date"`
	Notes        string `form:"notes"`
	MaterialCost string `form:"material_cost"`
	LaborCost    string `form:"labor_cost"`
}

// CreateOrderInput is an OrderForm that passed validation.
type CreateOrderInput struct {
	CompanyID    uuid.UUID
	Quantity     int
	PricePerUnit decimal.Decimal
	DueDate      time.Time
	Notes        string
	MaterialCost decimal.Decimal
	LaborCost    decimal.Decimal
}

// ValidateOrderForm checks every field and returns either a typed input or a
// validation error naming all offending fields.
func ValidateOrderForm(form OrderForm, now time.Time) (CreateOrderInput, error) {
	fields := map[string]string{}

	if err := validate.Struct(form); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return CreateOrderInput{}, apperror.Validation("Invalid order data", nil)
		}
		for _, fe := range validationErrs {
			switch fe.Tag() {
			case "required":
				fields[fe.Field()] = fe.Field() + " is required"
			case "uuid":
				fields[fe.Field()] = fe.Field() + " must be a valid UUID"
			default:
				fields[fe.Field()] = fe.Field() + " is invalid"
			}
		}
	}

	input := CreateOrderInput{
		Notes:        truncateRunes(form.Notes, MaxNotesChars),
		MaterialCost: decimal.Zero,
		LaborCost:    decimal.Zero,
	}

	if _, failed := fields["company_id"]; !failed {
		id, err := uuid.Parse(strings.TrimSpace(form.CompanyID))
		if err != nil {
			fields["company_id"] = "company_id must be a valid UUID"
		}
		input.CompanyID = id
	}

	if _, failed := fields["quantity"]; !failed {
		qty, err := strconv.ParseInt(strings.TrimSpace(form.Quantity), 10, 64)
		switch {
		case err != nil:
			fields["quantity"] = "quantity must be an integer"
		case qty < MinQuantity || qty > MaxQuantity:
			fields["quantity"] = fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity)
		default:
			input.Quantity = int(qty)
		}
	}

	if _, failed := fields["price_per_unit"]; !failed {
		price, err := decimal.NewFromString(strings.TrimSpace(form.PricePerUnit))
		switch {
		case err != nil:
			fields["price_per_unit"] = "price_per_unit must be a decimal number"
		case !fitsMoneyScale(price):
			fields["price_per_unit"] = "price_per_unit must have at most 2 decimal places"
		case !price.IsPositive() || price.GreaterThan(maxPricePerUnit):
			fields["price_per_unit"] = "price_per_unit must be greater than 0 and at most 10000000"
		default:
			input.PricePerUnit = price
		}
	}

	if strings.TrimSpace(form.DueDate) == "" {
		input.DueDate = now
	} else if due, err := parseDate(form.DueDate); err != nil {
		fields["due_date"] = "due_date must be a valid date (YYYY-MM-DD)"
	} else {
		input.DueDate = due
	}

	for name, raw := range map[string]string{"material_cost": form.MaterialCost, "labor_cost": form.LaborCost} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		cost, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || cost.IsNegative() {
			fields[name] = name + " must be a non-negative decimal number"
			continue
		}
		if !fitsMoneyScale(cost) {
			fields[name] = name + " must have at most 2 decimal places"
			continue
		}
		if name == "material_cost" {
			input.MaterialCost = cost
		} else {
			input.LaborCost = cost
		}
	}

	if len(fields) > 0 {
		return CreateOrderInput{}, apperror.Validation("Invalid order data", fields)
	}
	return input, nil
}

// NewOrder builds the initial row for a validated input. total_amount is
// computed here and never again.
func NewOrder(input CreateOrderInput, actor *model.User, imageURL *string, now time.Time) *model.Order {
	return &model.Order{
		ID:           uuid.New(),
		CompanyID:    input.CompanyID,
		Quantity:     input.Quantity,
		PricePerUnit: input.PricePerUnit,
		TotalAmount:  input.PricePerUnit.Mul(decimal.NewFromInt(int64(input.Quantity))),
		MaterialCost: input.MaterialCost,
		LaborCost:    input.LaborCost,
		DueDate:      input.DueDate,
		Notes:        input.Notes,
		ImageURL:     imageURL,
		Status:       model.OrderStatusAwaitingApproval,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// fitsMoneyScale reports whether d is stored without rounding. Trailing
// zeros are fine, so "50.000" passes.
func fitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyPlaces))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
