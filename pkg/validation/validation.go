package validation

import (
	"math"
	"reflect"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a validator that understands decimal.Decimal fields, so numeric
// tags such as gt=0 can be used on money and quantity fields.
func New() *goValidator.Validate {
	v := goValidator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return v
}

func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	// keep the sign of values too small for a float64 so gt=0 and lt=0 still hold
	if f == 0 && !d.IsZero() {
		return math.Copysign(math.SmallestNonzeroFloat64, float64(d.Sign()))
	}
	return f
}
