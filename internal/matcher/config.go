// Package matcher provides the invoice/purchase-order matching engine and
// the issue classifier.
//
// The engine aligns an invoice against a candidate purchase order at header
// and line-item granularity, classifies every discrepancy into a typed,
// severity-ranked validation issue, and derives an overall match status and
// confidence score. Mismatches are the expected output, encoded as issues;
// the engine only errors on structurally invalid input.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig())
//	result, err := engine.Match(invoice, po)
//	if result.MatchStatus == models.StatusNeedsReview {
//		// route to the review queue
//	}
package matcher

import (
	"fmt"

	"invoice-matching-service/internal/aligner"
)

// Config holds configuration parameters for invoice/PO matching.
// Use the provided factory functions for common scenarios:
//   - DefaultConfig: balanced tolerances for most AP departments
//   - StrictConfig: zero numeric tolerance for critical approval flows
//   - RelaxedConfig: loose tolerances for exploratory matching
type Config struct {
	// TotalTolerance is the relative tolerance for the header total
	// comparison (0.01 means 1%). The boundary is inclusive: a difference
	// of exactly the tolerance still matches.
	TotalTolerance float64 `json:"total_tolerance"`

	// ExceptionThreshold is the relative total difference above which a
	// total mismatch escalates from medium to high severity.
	ExceptionThreshold float64 `json:"exception_threshold"`

	// VendorSimilarityThreshold is the minimum normalized similarity for
	// the fuzzy vendor name comparison.
	VendorSimilarityThreshold float64 `json:"vendor_similarity_threshold"`

	// Aligner configures the line item alignment passes.
	Aligner *aligner.Config `json:"aligner"`

	// Penalties are the per-issue confidence deductions by severity.
	Penalties ConfidencePenalties `json:"penalties"`

	// CheckDuplicates enables the duplicate invoice check when the engine
	// has a duplicate checker attached.
	CheckDuplicates bool `json:"check_duplicates"`

	// CheckDateAnomaly flags invoices dated before their purchase order.
	CheckDateAnomaly bool `json:"check_date_anomaly"`
}

// ConfidencePenalties defines the confidence deduction per issue, scaled
// by severity. Info issues never reduce confidence.
type ConfidencePenalties struct {
	Critical float64 `json:"critical"`
	High     float64 `json:"high"`
	Medium   float64 `json:"medium"`
	Low      float64 `json:"low"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		TotalTolerance:            0.01,
		ExceptionThreshold:        0.05,
		VendorSimilarityThreshold: 0.85,
		Aligner:                   aligner.DefaultConfig(),
		Penalties: ConfidencePenalties{
			Critical: 0.4,
			High:     0.25,
			Medium:   0.1,
			Low:      0.05,
		},
		CheckDuplicates:  true,
		CheckDateAnomaly: true,
	}
}

// StrictConfig returns a configuration for strict matching
func StrictConfig() *Config {
	config := DefaultConfig()
	config.TotalTolerance = 0.0
	config.ExceptionThreshold = 0.01
	config.VendorSimilarityThreshold = 0.95
	config.Aligner = &aligner.Config{
		DescriptionThreshold: 0.8,
		QuantityTolerance:    0.0,
		PriceTolerance:       0.0,
	}
	return config
}

// RelaxedConfig returns a configuration for relaxed matching
func RelaxedConfig() *Config {
	config := DefaultConfig()
	config.TotalTolerance = 0.02
	config.ExceptionThreshold = 0.1
	config.VendorSimilarityThreshold = 0.75
	config.Aligner = &aligner.Config{
		DescriptionThreshold: 0.5,
		QuantityTolerance:    0.02,
		PriceTolerance:       0.02,
	}
	return config
}

// Validate checks if the matching configuration is valid
func (c *Config) Validate() error {
	if c.TotalTolerance < 0.0 || c.TotalTolerance > 1.0 {
		return fmt.Errorf("total tolerance must be between 0.0 and 1.0: %f", c.TotalTolerance)
	}

	if c.ExceptionThreshold < c.TotalTolerance {
		return fmt.Errorf("exception threshold %f cannot be below total tolerance %f",
			c.ExceptionThreshold, c.TotalTolerance)
	}

	if c.VendorSimilarityThreshold < 0.0 || c.VendorSimilarityThreshold > 1.0 {
		return fmt.Errorf("vendor similarity threshold must be between 0.0 and 1.0: %f",
			c.VendorSimilarityThreshold)
	}

	for _, penalty := range []float64{c.Penalties.Critical, c.Penalties.High, c.Penalties.Medium, c.Penalties.Low} {
		if penalty < 0.0 || penalty > 1.0 {
			return fmt.Errorf("confidence penalties must be between 0.0 and 1.0: %f", penalty)
		}
	}

	if c.Aligner == nil {
		return fmt.Errorf("aligner configuration is required")
	}

	return c.Aligner.Validate()
}

// Clone creates a deep copy of the matching configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	if c.Aligner != nil {
		alignerCopy := *c.Aligner
		clone.Aligner = &alignerCopy
	}

	return &clone
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{TotalTolerance: %.2f%%, ExceptionThreshold: %.2f%%, VendorThreshold: %.2f, DescThreshold: %.2f}",
		c.TotalTolerance*100, c.ExceptionThreshold*100, c.VendorSimilarityThreshold, c.Aligner.DescriptionThreshold)
}
