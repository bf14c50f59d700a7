package validate

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// CronExpression checks a standard five-field cron expression or a descriptor
// such as @daily.
func CronExpression(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return errors.New("cron expression is required")
	}
	_, err := ParseCron(expr)
	return err
}

// ParseCron parses expr with the standard parser.
func ParseCron(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("cron expression is required")
	}
	return cron.ParseStandard(expr)
}

// Timezone checks an IANA zone name. Empty means UTC.
func Timezone(tz string) error {
	_, err := LoadLocation(tz)
	return err
}

func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}
