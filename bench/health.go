package bench

import "time"

type Health int

const (
	Healthy Health = iota
	Degraded
	Failing
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "OK"
	case Degraded:
		return "WARN"
	default:
		return "FAIL"
	}
}

// ClassifySuccessRate grades a scenario: >=95% healthy, >=80% degraded.
func ClassifySuccessRate(rate float64) Health {
	switch {
	case rate >= 95:
		return Healthy
	case rate >= 80:
		return Degraded
	default:
		return Failing
	}
}

type LagGrade int

const (
	LagExcellent LagGrade = iota
	LagGood
	LagNoticeable
	LagCritical
)

func (g LagGrade) String() string {
	switch g {
	case LagExcellent:
		return "EXCELLENT"
	case LagGood:
		return "GOOD"
	case LagNoticeable:
		return "WARNING"
	default:
		return "CRITICAL"
	}
}

func GradeLag(avg time.Duration) LagGrade {
	switch {
	case avg < 10*time.Millisecond:
		return LagExcellent
	case avg < 100*time.Millisecond:
		return LagGood
	case avg < time.Second:
		return LagNoticeable
	default:
		return LagCritical
	}
}
