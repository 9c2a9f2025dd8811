package measurement

// Input is a candidate reading before it becomes a Record. Nil means the field
// was not supplied.
type Input struct {
	Systolic  *int
	Diastolic *int
	Pulse     *int
	Weight    *float64
	Mood      *int
	Condition *int
}

type Result struct {
	Valid  bool
	Errors []string
}

const (
	msgSystolicRequired  = "systolic pressure is required"
	msgSystolicRange     = "systolic pressure must be an integer between 50 and 300"
	msgDiastolicRequired = "diastolic pressure is required"
	msgDiastolicRange    = "diastolic pressure must be an integer between 30 and 200"
	msgPulseRange        = "pulse must be an integer between 30 and 250"
	msgWeightRange       = "weight must be between 20 and 300 kg"
	msgMoodRange         = "mood must be 1, 2 or 3"
	msgConditionRange    = "condition must be 1, 2 or 3"
	msgSystolicNotAbove  = "systolic pressure must be greater than diastolic pressure"
)

// Validate runs every applicable check and collects all resulting messages in
// a fixed order. The cross-field check runs only when both pressure fields are
// individually valid.
func Validate(in Input) Result {
	var errs []string

	systolicOK := false
	switch {
	case in.Systolic == nil:
		errs = append(errs, msgSystolicRequired)
	case *in.Systolic < 50 || *in.Systolic > 300:
		errs = append(errs, msgSystolicRange)
	default:
		systolicOK = true
	}

	diastolicOK := false
	switch {
	case in.Diastolic == nil:
		errs = append(errs, msgDiastolicRequired)
	case *in.Diastolic < 30 || *in.Diastolic > 200:
		errs = append(errs, msgDiastolicRange)
	default:
		diastolicOK = true
	}

	if in.Pulse != nil && (*in.Pulse < 30 || *in.Pulse > 250) {
		errs = append(errs, msgPulseRange)
	}

	if in.Weight != nil && (*in.Weight < 20 || *in.Weight > 300) {
		errs = append(errs, msgWeightRange)
	}

	if in.Mood != nil && (*in.Mood < 1 || *in.Mood > 3) {
		errs = append(errs, msgMoodRange)
	}

	if in.Condition != nil && (*in.Condition < 1 || *in.Condition > 3) {
		errs = append(errs, msgConditionRange)
	}

	if systolicOK && diastolicOK && *in.Systolic <= *in.Diastolic {
		errs = append(errs, msgSystolicNotAbove)
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}
