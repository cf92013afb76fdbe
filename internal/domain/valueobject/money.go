package valueobject

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

// MoneyPlaces количество знаков после запятой для сумм и количеств.
const MoneyPlaces = 2

// DefaultTaxRate ставка налога, применяемая к сумме заказа.
var DefaultTaxRate = decimal.RequireFromString("0.21")

// LineInput позиция заказа с зафиксированной ценой.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LineTotal позиция с рассчитанной стоимостью.
type LineTotal struct {
	LineInput
	Subtotal decimal.Decimal
}

// Totals итог расчёта заказа.
type Totals struct {
	Lines []LineTotal
	Total decimal.Decimal
	Tax   decimal.Decimal
}

// GrandTotal возвращает сумму с налогом.
func (t Totals) GrandTotal() decimal.Decimal {
	return t.Total.Add(t.Tax)
}

// CalculateTotals считает подытоги, сумму и налог заказа.
// total = Σ quantity × unit_price, tax = round(total × taxRate, 2).
func CalculateTotals(lines []LineInput, taxRate decimal.Decimal) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, apperror.Validation("заказ должен содержать хотя бы одну позицию")
	}
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Totals{}, apperror.Validation("некорректная ставка налога %s", taxRate.String())
	}

	result := Totals{
		Lines: make([]LineTotal, 0, len(lines)),
		Total: decimal.Zero,
	}

	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return Totals{}, apperror.Validation("позиция %d: не указан product_id", i+1)
		}
		if !line.Quantity.IsPositive() {
			return Totals{}, apperror.Validation("позиция %d: количество должно быть положительным", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return Totals{}, apperror.Validation("позиция %d: цена не может быть отрицательной", i+1)
		}

		exact := line.Quantity.Mul(line.UnitPrice)
		// подытог строки округлён для показа, сумма копится по точным значениям
		result.Lines = append(result.Lines, LineTotal{LineInput: line, Subtotal: exact.Round(MoneyPlaces)})
		result.Total = result.Total.Add(exact)
	}

	result.Total = result.Total.Round(MoneyPlaces)
	result.Tax = result.Total.Mul(taxRate).Round(MoneyPlaces)

	return result, nil
}

// SavingsPercentage возвращает скидку относительно рыночной цены в целых процентах.
func SavingsPercentage(price decimal.Decimal, marketPrice decimal.NullDecimal) int64 {
	if !marketPrice.Valid || !marketPrice.Decimal.IsPositive() {
		return 0
	}
	market := marketPrice.Decimal
	return market.Sub(price).Div(market).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// NormalizeAmount округляет денежную величину и запрещает отрицательные значения.
func NormalizeAmount(field string, v decimal.Decimal) (decimal.Decimal, error) {
	if v.IsNegative() {
		return decimal.Zero, apperror.Validation("%s не может быть отрицательным", field)
	}
	if v.Exponent() < -MoneyPlaces && !v.Equal(v.Round(MoneyPlaces)) {
		return decimal.Zero, apperror.Validation("%s: допускается не более %d знаков после запятой", field, MoneyPlaces)
	}
	return v.Round(MoneyPlaces), nil
}
