package store

import (
	"fmt"
	"time"
)

// ErrorMetrics is the digest the metrics panel renders. It is derived on
// demand; nothing here is a source of truth.
type ErrorMetrics struct {
	TotalErrors    int `json:"totalErrors"`
	ActiveErrors   int `json:"activeErrors"`
	ResolvedErrors int `json:"resolvedErrors"`

	// Resolution times in minutes, over resolved errors only.
	AverageResolutionTime float64 `json:"averageResolutionTime"`
	MaxResolutionTime     float64 `json:"maxResolutionTime"`
	MinResolutionTime     float64 `json:"minResolutionTime"`

	ErrorsByBank         map[string]int     `json:"errorsByBank"`
	ResolutionTimeByBank map[string]float64 `json:"resolutionTimeByBank"`

	ErrorsBySeverity         map[string]int     `json:"errorsBySeverity"`
	ResolutionTimeBySeverity map[string]float64 `json:"resolutionTimeBySeverity"`

	ErrorsByCategory         map[string]int     `json:"errorsByCategory"`
	ResolutionTimeByCategory map[string]float64 `json:"resolutionTimeByCategory"`

	ErrorsLast24h int `json:"errorsLast24h"`
	ErrorsLast7d  int `json:"errorsLast7d"`
	ErrorsLast30d int `json:"errorsLast30d"`

	ErrorRate24h  float64 `json:"errorRate24h"` // errors per hour over the last 24h
	PeakErrorTime string  `json:"peakErrorTime"`
}

// ComputeMetrics is a pure derivation over the supplied error collection
// and trend buckets, evaluated at now.
func ComputeMetrics(now time.Time, errs []StoredError, trends []Trend) ErrorMetrics {
	last24h := now.Add(-24 * time.Hour)
	last7d := now.Add(-7 * 24 * time.Hour)
	last30d := now.Add(-30 * 24 * time.Hour)

	metrics := ErrorMetrics{
		ErrorsByBank:             make(map[string]int),
		ResolutionTimeByBank:     make(map[string]float64),
		ErrorsBySeverity:         make(map[string]int),
		ResolutionTimeBySeverity: make(map[string]float64),
		ErrorsByCategory:         make(map[string]int),
		ResolutionTimeByCategory: make(map[string]float64),
	}

	metrics.TotalErrors = len(errs)
	minResolution := -1.0

	for _, e := range errs {
		if e.ResolvedAt == nil {
			metrics.ActiveErrors++
		} else {
			metrics.ResolvedErrors++
		}

		metrics.ErrorsByBank[e.BankName]++
		metrics.ErrorsBySeverity[string(e.Severity)]++
		metrics.ErrorsByCategory[string(e.Category)]++

		if e.ResolvedAt != nil {
			resolution := e.ResolvedAt.Sub(e.Timestamp).Minutes()

			if resolution > metrics.MaxResolutionTime {
				metrics.MaxResolutionTime = resolution
			}
			if minResolution < 0 || resolution < minResolution {
				minResolution = resolution
			}
			metrics.AverageResolutionTime += resolution

			metrics.ResolutionTimeByBank[e.BankName] += resolution
			metrics.ResolutionTimeBySeverity[string(e.Severity)] += resolution
			metrics.ResolutionTimeByCategory[string(e.Category)] += resolution
		}

		if !e.Timestamp.Before(last24h) {
			metrics.ErrorsLast24h++
		}
		if !e.Timestamp.Before(last7d) {
			metrics.ErrorsLast7d++
		}
		if !e.Timestamp.Before(last30d) {
			metrics.ErrorsLast30d++
		}
	}

	if metrics.ResolvedErrors > 0 {
		metrics.AverageResolutionTime /= float64(metrics.ResolvedErrors)
		metrics.MinResolutionTime = minResolution
	}

	metrics.ErrorRate24h = float64(metrics.ErrorsLast24h) / 24

	metrics.PeakErrorTime = peakHour(trends)

	return metrics
}

// peakHour finds the clock hour with the most errors across the trend
// history. Ties resolve to the earliest hour.
func peakHour(trends []Trend) string {
	var hourCounts [24]int
	for _, trend := range trends {
		at, err := time.Parse(trendHourLayout, trend.Timestamp)
		if err != nil {
			continue
		}
		hourCounts[at.Hour()] += trend.Count
	}

	peak := 0
	for hour := 1; hour < 24; hour++ {
		if hourCounts[hour] > hourCounts[peak] {
			peak = hour
		}
	}
	return fmt.Sprintf("%02d:00", peak)
}
