package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration reports an error unless d > 0.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateNonNegativeDuration reports an error when d < 0. Zero is allowed
// and usually means "disabled".
func ValidateNonNegativeDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("duration must be non-negative, got %v", d)
	}
	return nil
}

// ValidateDurationRange reports an error unless min <= d <= max.
//
// Example:
//
//	if err := ValidateDurationRange(delay, 100*time.Millisecond, time.Minute); err != nil {
//	    return fmt.Errorf("SUPERVISOR_RETRY_DELAY: %w", err)
//	}
func ValidateDurationRange(d, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if d < min {
		return fmt.Errorf("duration %v is below minimum %v", d, min)
	}
	if d > max {
		return fmt.Errorf("duration %v exceeds maximum %v", d, max)
	}
	return nil
}

// ValidateIntRange reports an error unless min <= v <= max.
func ValidateIntRange(v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("value %d is outside [%d, %d]", v, min, max)
	}
	return nil
}

// ValidatePort reports an error unless p is a usable TCP port.
func ValidatePort(p int) error {
	if err := ValidateIntRange(p, 1, 65535); err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	return nil
}
