package bayes

import "fmt"

// TrainingMode selects how Category.Train and Category.Untrain act
type TrainingMode uint8

const (
	// Standard training changes the counters of the trained category
	Standard TrainingMode = iota
	// Complementary training changes the counters of every other visible category
	Complementary
)

func (m TrainingMode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Complementary:
		return "complementary"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// Scoring returns the selection rule of the classifier for this training mode
func (m TrainingMode) Scoring() ScoringMode {
	if m == Complementary {
		return ArgMin
	}
	return ArgMax
}

// ParseTrainingMode converts "standard" or "complementary" into a TrainingMode
func ParseTrainingMode(s string) (TrainingMode, error) {
	switch s {
	case "standard", "":
		return Standard, nil
	case "complementary":
		return Complementary, nil
	default:
		return Standard, fmt.Errorf("invalid training mode %q (expected standard or complementary)", s)
	}
}

// ScoringMode selects the winning category of a classification
type ScoringMode uint8

const (
	ArgMax ScoringMode = iota // highest score wins
	ArgMin                    // lowest score wins
)

// better reports whether score a beats score b
func (m ScoringMode) better(a, b float64) bool {
	if m == ArgMin {
		return a < b
	}
	return a > b
}

// Config configures a category store
type Config struct {
	// Namespace isolates independent classifiers sharing one store ("" = no namespace)
	Namespace string
	// ManualSave disables the automatic Save after every change, the caller has to call Categories.Save
	ManualSave bool
	// Mode selects standard or complementary training
	Mode TrainingMode
}
