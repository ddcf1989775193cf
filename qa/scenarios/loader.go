package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/request"
)

// PassageDef is one vehicle going through the gantry. A missing vehicle
// models a passage where no vehicle could be read.
type PassageDef struct {
	Label   string         `yaml:"label"`
	Vehicle map[string]any `yaml:"vehicle,omitempty"`
	Expect  ExpectDef      `yaml:"expect"`
}

// Request returns the boundary request for the passage, nil when no vehicle
// was given.
func (p PassageDef) Request() *request.Request {
	if p.Vehicle == nil {
		return nil
	}
	return request.FromMap(p.Vehicle)
}

// ExpectDef is the outcome of a single passage: either an amount and rule or
// an error kind.
type ExpectDef struct {
	Amount string `yaml:"amount,omitempty"`
	Rule   string `yaml:"rule,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Money parses the expected amount.
func (e ExpectDef) Money() (model.Money, error) {
	return model.ParseMoney(e.Amount)
}

type Expected struct {
	Priced   int    `yaml:"priced"`
	Rejected int    `yaml:"rejected"`
	Total    string `yaml:"total,omitempty"`
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Passages    []PassageDef `yaml:"passages"`
	Expected    Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	for i, p := range sc.Passages {
		hasAmount := p.Expect.Amount != ""
		hasError := p.Expect.Error != ""
		if hasAmount == hasError {
			return fmt.Errorf("passage %d (%s): expect exactly one of amount or error", i, p.Label)
		}
		if hasAmount {
			if _, err := p.Expect.Money(); err != nil {
				return fmt.Errorf("passage %d (%s): %w", i, p.Label, err)
			}
		}
	}
	return nil
}
