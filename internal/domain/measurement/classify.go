package measurement

// Grade is a blood-pressure severity tier per the JSH home-measurement table.
type Grade int

const (
	GradeNormal Grade = iota
	GradeElevatedNormal
	GradeHighNormal
	GradeHypertension1
	GradeHypertension2
	GradeHypertension3
)

// Classify maps a reading to its tier, checking thresholds from most severe to
// least. Either field crossing a threshold promotes the whole reading.
func Classify(systolic, diastolic int) Grade {
	switch {
	case systolic >= 160 || diastolic >= 100:
		return GradeHypertension3
	case systolic >= 150 || diastolic >= 95:
		return GradeHypertension2
	case systolic >= 135 || diastolic >= 85:
		return GradeHypertension1
	case systolic >= 125 || diastolic >= 75:
		return GradeHighNormal
	case systolic >= 115:
		return GradeElevatedNormal
	default:
		return GradeNormal
	}
}

func (g Grade) String() string {
	switch g {
	case GradeNormal:
		return "Normal"
	case GradeElevatedNormal:
		return "Elevated Normal"
	case GradeHighNormal:
		return "High Normal"
	case GradeHypertension1:
		return "Grade I Hypertension"
	case GradeHypertension2:
		return "Grade II Hypertension"
	case GradeHypertension3:
		return "Grade III Hypertension"
	default:
		return "Normal"
	}
}

// StyleTag returns the stable presentation tag for a tier. Unrecognized values
// fall back to the normal tag.
func (g Grade) StyleTag() string {
	switch g {
	case GradeElevatedNormal:
		return "bp-elevated"
	case GradeHighNormal:
		return "bp-high-normal"
	case GradeHypertension1:
		return "bp-grade1"
	case GradeHypertension2:
		return "bp-grade2"
	case GradeHypertension3:
		return "bp-grade3"
	default:
		return "bp-normal"
	}
}
