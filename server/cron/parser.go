package cron

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/arabah/arabah/config"
)

const (
	triggerSeparator       = ";"
	operationSeparator     = ":"
	operationListSeparator = ","
)

// TriggerSpec is a validated set of operations and the schedule to refresh them on.
type TriggerSpec struct {
	Operations []string
	CronSpec   string
}

// ParseTriggerSpecs parses a multi-trigger specification string into individual trigger specs.
// The format is: op1,op2:cron_expression;op3:cron_expression2
//
// Example:
//
//	"home,categories:*/15 * * * *;notifications:@hourly"
//
// Returns an error if:
//   - Any trigger is missing operations or a cron expression
//   - Any operation name is not in available
//   - Any cron expression is invalid
//   - Any trigger has duplicate operations
func ParseTriggerSpecs(spec string, available map[string]bool) ([]TriggerSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("cron spec cannot be empty")
	}

	triggerStrs := strings.Split(spec, triggerSeparator)
	specs := make([]TriggerSpec, 0, len(triggerStrs))

	for _, triggerStr := range triggerStrs {
		triggerStr = strings.TrimSpace(triggerStr)
		if triggerStr == "" {
			continue // trailing semicolon
		}

		ops, cronSpec, ok := strings.Cut(triggerStr, operationSeparator)
		if !ok {
			return nil, fmt.Errorf("invalid trigger spec: expected format 'operations:cron', got '%s'", triggerStr)
		}

		triggerSpec, err := newTriggerSpec(strings.Split(ops, operationListSeparator), cronSpec, available)
		if err != nil {
			return nil, fmt.Errorf("invalid trigger spec '%s': %w", triggerStr, err)
		}
		specs = append(specs, triggerSpec)
	}

	if len(specs) == 0 {
		return nil, errors.New("no valid triggers found in cron spec")
	}

	return specs, nil
}

// FromConfig validates the refresh triggers of a loaded config.
func FromConfig(triggers []config.RefreshTrigger, available map[string]bool) ([]TriggerSpec, error) {
	specs := make([]TriggerSpec, 0, len(triggers))
	for i, t := range triggers {
		spec, err := newTriggerSpec(t.Operations, t.Schedule, available)
		if err != nil {
			return nil, fmt.Errorf("refresh trigger %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func newTriggerSpec(names []string, cronSpec string, available map[string]bool) (TriggerSpec, error) {
	cronSpec = strings.TrimSpace(cronSpec)
	if cronSpec == "" {
		return TriggerSpec{}, errors.New("missing cron schedule")
	}

	ops := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if slices.Contains(ops, name) {
			return TriggerSpec{}, fmt.Errorf("duplicate operation '%s'", name)
		}
		if !available[name] {
			return TriggerSpec{}, fmt.Errorf("unknown operation '%s' (available: %s)", name, formatAvailable(available))
		}
		ops = append(ops, name)
	}

	if len(ops) == 0 {
		return TriggerSpec{}, errors.New("missing operations")
	}

	if _, err := scheduleParser.Parse(cronSpec); err != nil {
		return TriggerSpec{}, fmt.Errorf("invalid cron expression: %w", err)
	}

	return TriggerSpec{
		Operations: ops,
		CronSpec:   cronSpec,
	}, nil
}

// formatAvailable lists the available operations, sorted, for error messages.
func formatAvailable(available map[string]bool) string {
	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
