// Package config assembles component configurations from CLI flags.
package config

import (
	"fmt"
	"time"

	"invoice-matching-service/internal/matcher"
	"invoice-matching-service/internal/queue"
	"invoice-matching-service/internal/reporter"
	"invoice-matching-service/internal/service"
)

// CreateMatchingConfig builds a matching configuration from a profile name
// and CLI tolerance overrides. A negative override means "keep the profile
// value".
func CreateMatchingConfig(profile string, totalTolerance, vendorThreshold, descriptionThreshold float64) (*matcher.Config, error) {
	var config *matcher.Config
	switch profile {
	case "", "default":
		config = matcher.DefaultConfig()
	case "strict":
		config = matcher.StrictConfig()
	case "relaxed":
		config = matcher.RelaxedConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile '%s'. Valid profiles: default, strict, relaxed", profile)
	}

	// Apply CLI overrides
	if totalTolerance >= 0 {
		config.TotalTolerance = totalTolerance
	}
	if vendorThreshold >= 0 {
		config.VendorSimilarityThreshold = vendorThreshold
	}
	if descriptionThreshold >= 0 {
		config.Aligner.DescriptionThreshold = descriptionThreshold
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}
	return config, nil
}

// CreateServiceConfig builds the service configuration, with optional SLA
// overrides in hours (zero means keep defaults)
func CreateServiceConfig(matching *matcher.Config, criticalSLAHours, highSLAHours int) (*service.Config, error) {
	sla := queue.DefaultSLAConfig()
	if criticalSLAHours > 0 {
		sla.Critical = time.Duration(criticalSLAHours) * time.Hour
	}
	if highSLAHours > 0 {
		sla.High = time.Duration(highSLAHours) * time.Hour
	}
	if err := sla.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SLA configuration: %w", err)
	}

	return &service.Config{
		Matching: matching,
		SLA:      sla,
	}, nil
}

// CreateReportConfig builds the report configuration from CLI flags
func CreateReportConfig(format string, includeResolved, includeLines bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(format)
	config.IncludeResolved = includeResolved
	config.IncludeLineDetail = includeLines

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
