package validate

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid input")

var contractPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// Money accepts strictly positive amounts.
func Money(v float64) error {
	if v <= 0 {
		return invalid("o valor deve ser maior que zero")
	}
	return nil
}

// Date rejects dates after now.
func Date(d, now time.Time) error {
	if d.IsZero() {
		return invalid("data inválida")
	}
	if d.After(now) {
		return invalid("a data não pode ser futura")
	}
	return nil
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, invalid("data inválida")
	}
	return t, nil
}

// Percent accepts values in [0, 100].
func Percent(v float64) error {
	if v < 0 || v > 100 {
		return invalid("o percentual deve estar entre 0 e 100")
	}
	return nil
}

// ContractNumber requires the XXXX/XXXX format.
func ContractNumber(s string) error {
	if !contractPattern.MatchString(s) {
		return invalid("formato inválido, use XXXX/XXXX")
	}
	return nil
}
