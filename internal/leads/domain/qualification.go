package domain

// Qualification is the tier a total score falls into.
type Qualification string

const (
	QualificationHot  Qualification = "hot"
	QualificationWarm Qualification = "warm"
	QualificationLow  Qualification = "low"
	QualificationCold Qualification = "cold"
)

// Tier thresholds are inclusive lower bounds.
const (
	HotThreshold  = 80
	WarmThreshold = 50
	LowThreshold  = 20
)

// Classify maps a total score to its tier.
func Classify(score int) Qualification {
	switch {
	case score >= HotThreshold:
		return QualificationHot
	case score >= WarmThreshold:
		return QualificationWarm
	case score >= LowThreshold:
		return QualificationLow
	default:
		return QualificationCold
	}
}

// Label is the dashboard label of the tier.
func (q Qualification) Label() string {
	switch q {
	case QualificationHot:
		return "Alto"
	case QualificationWarm:
		return "Medio"
	case QualificationLow:
		return "Basso"
	case QualificationCold:
		return "Molto Basso"
	default:
		return ""
	}
}

func (q Qualification) Valid() bool {
	return q.Label() != ""
}
