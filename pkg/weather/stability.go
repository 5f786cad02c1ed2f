package weather

import (
	"github.com/burnwise/coordinator/pkg/models"
)

// ClassifyStability derives a Pasquill-Gifford stability class from wind
// speed and insolation (spec §4.4 step 3: "class selection from wind speed
// bands and insolation/cloud cover"). The snapshot carries no direct
// sunshine measurement, so insolation is approximated from precipitation
// probability as a cloud-cover proxy (clear sky implies low precipitation
// probability) combined with local hour to distinguish day from night.
func ClassifyStability(windSpeedMS float64, precipProbPct float64, localHour float64) models.StabilityClass {
	isDaytime := localHour >= 7 && localHour < 19
	cloudy := precipProbPct > 50

	switch {
	case !isDaytime:
		switch {
		case windSpeedMS < 2:
			return models.StabilityF
		case windSpeedMS < 3:
			return models.StabilityE
		default:
			return models.StabilityD
		}
	case cloudy:
		return models.StabilityD
	case windSpeedMS < 2:
		return models.StabilityA
	case windSpeedMS < 3:
		return models.StabilityB
	case windSpeedMS < 5:
		return models.StabilityC
	case windSpeedMS < 6:
		return models.StabilityD
	default:
		return models.StabilityD
	}
}
