package session

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for run failure classification. Every fatal condition
// aborts the run; the markers exist so callers and tests can tell why.
var (
	ErrUsage         = errors.New("usage error")
	ErrConfiguration = errors.New("configuration error")
	ErrEmptyInput    = errors.New("empty input")
	ErrOperation     = errors.New("operation failure")
)

// Wrap builds an error message that includes run-stage context while tagging
// it with the provided marker for classification via errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrOperation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "run failure"
	}
	return strings.Join(parts, ": ")
}
