package sla

import "github.com/spec-kit/workflow-service/internal/domain"

// EvaluateObjective reports whether the current value meets the target under
// the definition's operator. Latency and freshness objectives use lt/lte
// (lower is better); success-rate objectives use gt (higher is better).
func EvaluateObjective(current, target float64, operator domain.ThresholdOperator) bool {
	switch operator {
	case domain.OperatorLT:
		return current < target
	case domain.OperatorLTE:
		return current <= target
	case domain.OperatorGT:
		return current > target
	default:
		return false
	}
}

// CalculateSeverity classifies how badly a failing value misses its target.
// The two objective families grade differently and are not interchangeable:
// latency-like objectives by the ratio current/target, rate-like objectives
// by the absolute deficit target-current in points.
func CalculateSeverity(current, target float64, objective domain.ObjectiveType) domain.BreachSeverity {
	if objective == domain.ObjectiveSuccessRate {
		deficit := target - current
		switch {
		case deficit >= 50:
			return domain.SeverityCritical
		case deficit >= 25:
			return domain.SeverityHigh
		case deficit >= 10:
			return domain.SeverityMedium
		default:
			return domain.SeverityLow
		}
	}

	if target <= 0 {
		return domain.SeverityCritical
	}
	ratio := current / target
	switch {
	case ratio >= 3:
		return domain.SeverityCritical
	case ratio >= 2:
		return domain.SeverityHigh
	case ratio >= 1.5:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
