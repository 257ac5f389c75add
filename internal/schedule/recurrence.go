package schedule

import (
	"errors"
	"fmt"

	"spendwise/internal/core"
)

type Recurrence string

const (
	None    Recurrence = "none"
	Weekly  Recurrence = "weekly"
	Monthly Recurrence = "monthly"
)

const (
	// DefaultOccurrences is the series length when none is given.
	DefaultOccurrences = 12
	// MaxOccurrences bounds one series.
	MaxOccurrences = 120
)

var ErrInvalidOccurrences = errors.New("occurrence count out of range")

// Stepper computes the date of the i-th occurrence (0-based) of a series.
type Stepper interface {
	Step(start core.Date, i int) core.Date
}

type onceStepper struct{}

func (onceStepper) Step(start core.Date, _ int) core.Date { return start }

// WeeklyStepper adds i weeks.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(start core.Date, i int) core.Date { return start.AddDays(7 * i) }

// MonthlyStepper adds i months, clamping the day to the month's length.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(start core.Date, i int) core.Date { return start.AddMonths(i) }

var steppers = map[Recurrence]Stepper{
	None:    onceStepper{},
	Weekly:  WeeklyStepper{},
	Monthly: MonthlyStepper{},
}

// StepperFor returns the stepper of a recurrence. An empty recurrence
// means a single occurrence.
func StepperFor(r Recurrence) (Stepper, error) {
	if r == "" {
		r = None
	}
	s, ok := steppers[r]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence: %s", r)
	}
	return s, nil
}

// RegisterStepper adds or replaces the stepper of a recurrence.
func RegisterStepper(r Recurrence, s Stepper) {
	steppers[r] = s
}

// ExpandSeries turns one draft into the planned entries of its series.
// A non-recurring draft yields itself. Recurring entries are titled
// "<title> (i/count)" and all start as not completed.
func ExpandSeries(draft core.PlannedTransaction, r Recurrence, count int) ([]core.PlannedTransaction, error) {
	stepper, err := StepperFor(r)
	if err != nil {
		return nil, err
	}
	if r == None || r == "" {
		draft.IsCompleted = false
		return []core.PlannedTransaction{draft}, nil
	}
	if count == 0 {
		count = DefaultOccurrences
	}
	if count < 1 || count > MaxOccurrences {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOccurrences, count)
	}

	out := make([]core.PlannedTransaction, count)
	for i := range count {
		entry := draft
		entry.Date = stepper.Step(draft.Date, i)
		entry.Title = fmt.Sprintf("%s (%d/%d)", draft.Title, i+1, count)
		entry.IsCompleted = false
		out[i] = entry
	}
	return out, nil
}
