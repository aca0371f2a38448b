// Package draft holds the in-progress registration grid of a project. A
// Draft is a plain value: the client sends it back with every edit and the
// server never keeps it between requests.
package draft

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meljneres/sistema-obras/internal/validate"
)

const (
	MaxItems   = 20
	MaxPeriods = 60

	// PlaceholderDescription marks an item the user has not named yet.
	PlaceholderDescription = "Insira o nome do item"

	// totals closer than this are considered equal
	totalTolerance = 0.01
)

var (
	ErrSize        = errors.New("draft: invalid grid size")
	ErrUnknownItem = errors.New("draft: unknown item")
	ErrPeriod      = errors.New("draft: period out of range")
)

// Item is one row of the grid. Planned is keyed by period number.
type Item struct {
	Key         string          `json:"key"`
	Description string          `json:"description"`
	Planned     map[int]float64 `json:"planned"`
}

type Draft struct {
	ID uuid.UUID `json:"id"`

	Name           string  `json:"name"`
	ContractNumber string  `json:"contract_number"`
	ServiceOrder   string  `json:"service_order"`
	Client         string  `json:"client"`
	Contractor     string  `json:"contractor"`
	TotalValue     float64 `json:"total_value"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	PlannedMonths  int     `json:"planned_months"`

	NumPeriods int    `json:"num_periods"`
	Items      []Item `json:"items"`
}

// Result lists what blocks saving (Errors) and what only deserves
// attention (Warnings).
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

// New returns an empty grid of numItems x numPeriods.
func New(numItems, numPeriods int) (*Draft, error) {
	if err := checkSize(numItems, numPeriods); err != nil {
		return nil, err
	}
	d := &Draft{
		ID:            uuid.New(),
		NumPeriods:    numPeriods,
		PlannedMonths: numPeriods,
	}
	for i := 0; i < numItems; i++ {
		d.Items = append(d.Items, newItem())
	}
	return d, nil
}

func newItem() Item {
	return Item{
		Key:         uuid.NewString(),
		Description: PlaceholderDescription,
		Planned:     map[int]float64{},
	}
}

func checkSize(numItems, numPeriods int) error {
	if numItems < 1 || numItems > MaxItems {
		return fmt.Errorf("%w: items must be between 1 and %d", ErrSize, MaxItems)
	}
	if numPeriods < 1 || numPeriods > MaxPeriods {
		return fmt.Errorf("%w: periods must be between 1 and %d", ErrSize, MaxPeriods)
	}
	return nil
}

// Normalize fills the fields a client may have omitted: id, item keys and
// value maps. Values of periods beyond NumPeriods are dropped.
func (d *Draft) Normalize() {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	for i := range d.Items {
		it := &d.Items[i]
		if it.Key == "" {
			it.Key = uuid.NewString()
		}
		it.Description = strings.TrimSpace(it.Description)
		if it.Planned == nil {
			it.Planned = map[int]float64{}
		}
		for p := range it.Planned {
			if p < 1 || p > d.NumPeriods {
				delete(it.Planned, p)
			}
		}
	}
}

// Resize changes the grid dimensions keeping every value that still fits.
func (d *Draft) Resize(numItems, numPeriods int) error {
	if err := checkSize(numItems, numPeriods); err != nil {
		return err
	}
	if len(d.Items) > numItems {
		d.Items = d.Items[:numItems]
	}
	for len(d.Items) < numItems {
		d.Items = append(d.Items, newItem())
	}
	d.NumPeriods = numPeriods
	d.Normalize()
	return nil
}

func (d *Draft) item(key string) (*Item, error) {
	for i := range d.Items {
		if d.Items[i].Key == key {
			return &d.Items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownItem, key)
}

// Set stores the planned value of an item for a period.
func (d *Draft) Set(key string, period int, value float64) error {
	it, err := d.item(key)
	if err != nil {
		return err
	}
	if period < 1 || period > d.NumPeriods {
		return fmt.Errorf("%w: %d", ErrPeriod, period)
	}
	if it.Planned == nil {
		it.Planned = map[int]float64{}
	}
	it.Planned[period] = value
	return nil
}

// ClearItem resets the description and all values of an item.
func (d *Draft) ClearItem(key string) error {
	it, err := d.item(key)
	if err != nil {
		return err
	}
	it.Description = PlaceholderDescription
	it.Planned = map[int]float64{}
	return nil
}

// ItemTotal is the sum of the planned values of one item.
func (d *Draft) ItemTotal(key string) (float64, error) {
	it, err := d.item(key)
	if err != nil {
		return 0, err
	}
	return it.Total(), nil
}

func (it Item) Total() float64 {
	var sum float64
	for _, v := range it.Planned {
		sum += v
	}
	return sum
}

// Named reports whether the user gave the item a real description.
func (it Item) Named() bool {
	return it.Description != "" && it.Description != PlaceholderDescription
}

// GrandTotal sums every item.
func (d *Draft) GrandTotal() float64 {
	var sum float64
	for _, it := range d.Items {
		sum += it.Total()
	}
	return sum
}

// Check validates the draft before it is saved. A grand total that differs
// from the declared contract value is a warning only.
func (d *Draft) Check() Result {
	var res Result
	addErr := func(msg string) { res.Errors = append(res.Errors, msg) }

	if strings.TrimSpace(d.Name) == "" {
		addErr("o nome da obra é obrigatório")
	}
	if strings.TrimSpace(d.ContractNumber) == "" {
		addErr("o número do contrato é obrigatório")
	} else if err := validate.ContractNumber(d.ContractNumber); err != nil {
		addErr(stripSentinel(err))
	}
	if err := validate.Money(d.TotalValue); err != nil {
		addErr("o valor total deve ser maior que zero")
	}
	if err := checkSize(len(d.Items), d.NumPeriods); err != nil {
		addErr("quantidade de itens ou medições inválida")
	}
	if d.PlannedMonths < 1 || d.PlannedMonths > MaxPeriods {
		addErr("duração prevista inválida")
	}

	start, errStart := d.parseDate(d.StartDate)
	end, errEnd := d.parseDate(d.EndDate)
	if errStart != nil {
		addErr("data de início inválida")
	}
	if errEnd != nil {
		addErr("data de término inválida")
	}
	if errStart == nil && errEnd == nil && !start.IsZero() && !end.IsZero() && end.Before(start) {
		addErr("a data de término é anterior à data de início")
	}

	for i, it := range d.Items {
		if !it.Named() {
			addErr(fmt.Sprintf("item %d: insira uma descrição", i+1))
		}
		if it.Total() <= 0 {
			addErr(fmt.Sprintf("item %d: o item deve ter valor maior que zero", i+1))
		}
		for p := 1; p <= d.NumPeriods; p++ {
			if it.Planned[p] < 0 {
				addErr(fmt.Sprintf("item %d: medição %d com valor negativo", i+1, p))
			}
		}
	}

	if total := d.GrandTotal(); d.TotalValue > 0 && math.Abs(total-d.TotalValue) > totalTolerance {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"o valor total calculado (%.2f) é diferente do valor informado (%.2f)",
			total, d.TotalValue))
	}
	return res
}

func stripSentinel(err error) string {
	return strings.TrimPrefix(err.Error(), validate.ErrInvalid.Error()+": ")
}

// parseDate accepts an empty string as "not informed".
func (d *Draft) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return validate.ParseDate(s)
}

// Dates returns the parsed start and end dates; nil when not informed.
func (d *Draft) Dates() (start, end *time.Time, err error) {
	s, err := d.parseDate(d.StartDate)
	if err != nil {
		return nil, nil, err
	}
	e, err := d.parseDate(d.EndDate)
	if err != nil {
		return nil, nil, err
	}
	if !s.IsZero() {
		start = &s
	}
	if !e.IsZero() {
		end = &e
	}
	return start, end, nil
}
