package services

import (
	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
)

// ThresholdResult is the evaluator readout for a need campaign.
type ThresholdResult struct {
	Current float64
	Target  float64
	Type    entities.ThresholdType
	Met     bool
}

// EvaluateThreshold recomputes the aggregate from the pledge rows every
// call. No caching: staleness is worse than the extra read. Zero pledges
// yields current=0, met=false.
func EvaluateThreshold(def entities.ThresholdDefinition, pledges []entities.Pledge) ThresholdResult {
	var current float64
	for _, pledge := range pledges {
		for _, row := range pledge.Rows {
			switch def.Type {
			case entities.ThresholdTypeValue:
				current += float64(row.Quantity) * row.UnitPrice
			default:
				current += float64(row.Quantity)
			}
		}
	}
	return ThresholdResult{
		Current: current,
		Target:  def.Target,
		Type:    def.Type,
		Met:     current >= def.Target,
	}
}
