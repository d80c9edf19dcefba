package invoice

import (
	"time"
)

// ServiceConfig tunes invoice creation.
type ServiceConfig struct {
	// DefaultPaymentStatus applies when a request carries none.
	DefaultPaymentStatus PaymentStatus

	// MaxAttempts bounds how often a creation is retried after contention.
	MaxAttempts int

	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
}

// DefaultServiceConfig returns the production defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultPaymentStatus: PaymentPending,
		MaxAttempts:          3,
		RetryBackoff:         20 * time.Millisecond,
	}
}

func (c ServiceConfig) normalized() ServiceConfig {
	if !c.DefaultPaymentStatus.Valid() {
		c.DefaultPaymentStatus = PaymentPending
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	return c
}
