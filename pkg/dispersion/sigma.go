package dispersion

import (
	"math"

	"github.com/burnwise/coordinator/pkg/models"
)

// sigmaY and sigmaZ implement the Briggs (1973) rural Pasquill-Gifford
// dispersion coefficient curves, indexed by stability class, for downwind
// distance x in meters.
func sigmaY(class models.StabilityClass, x float64) float64 {
	switch class {
	case models.StabilityA:
		return 0.22 * x * math.Pow(1+0.0001*x, -0.5)
	case models.StabilityB:
		return 0.16 * x * math.Pow(1+0.0001*x, -0.5)
	case models.StabilityC:
		return 0.11 * x * math.Pow(1+0.0001*x, -0.5)
	case models.StabilityD:
		return 0.08 * x * math.Pow(1+0.0001*x, -0.5)
	case models.StabilityE:
		return 0.06 * x * math.Pow(1+0.0001*x, -0.5)
	case models.StabilityF:
		return 0.04 * x * math.Pow(1+0.0001*x, -0.5)
	default:
		return 0.06 * x * math.Pow(1+0.0001*x, -0.5)
	}
}

func sigmaZ(class models.StabilityClass, x float64) float64 {
	switch class {
	case models.StabilityA:
		return 0.20 * x
	case models.StabilityB:
		return 0.12 * x
	case models.StabilityC:
		return 0.08 * x * math.Pow(1+0.0002*x, -0.5)
	case models.StabilityD:
		return 0.06 * x * math.Pow(1+0.0015*x, -0.5)
	case models.StabilityE:
		return 0.03 * x * math.Pow(1+0.0003*x, -1)
	case models.StabilityF:
		return 0.016 * x * math.Pow(1+0.0003*x, -1)
	default:
		return 0.03 * x * math.Pow(1+0.0003*x, -1)
	}
}

// worstCaseClass is the most stable (largest sigma suppression, narrowest
// plume, highest ground concentration for a given Q) class, used as the
// conservative fallback when stability-dependent math produces a non-finite
// result (spec §4.4 numerics).
const worstCaseClass = models.StabilityF
