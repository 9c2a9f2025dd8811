package measurement

import "math"

type Averages struct {
	Systolic  float64
	Diastolic float64
	Pulse     *float64
}

type Extremes struct {
	MaxSystolic  int
	MinSystolic  int
	MaxDiastolic int
	MinDiastolic int
	MaxPulse     *int
	MinPulse     *int
}

// Average returns the mean systolic/diastolic over all records and the mean
// pulse over the records that carry one. Nil on empty input.
func Average(records []*Record) *Averages {
	if len(records) == 0 {
		return nil
	}

	var sumSys, sumDia, sumPulse int
	pulseCount := 0
	for _, r := range records {
		sumSys += r.Systolic
		sumDia += r.Diastolic
		if r.Pulse != nil {
			sumPulse += *r.Pulse
			pulseCount++
		}
	}

	n := float64(len(records))
	avg := &Averages{
		Systolic:  round1(float64(sumSys) / n),
		Diastolic: round1(float64(sumDia) / n),
	}
	if pulseCount > 0 {
		p := round1(float64(sumPulse) / float64(pulseCount))
		avg.Pulse = &p
	}
	return avg
}

// MinMax returns per-field extrema in a single scan. The pulse pair is nil
// when no record in the set has a pulse. Nil on empty input.
func MinMax(records []*Record) *Extremes {
	if len(records) == 0 {
		return nil
	}

	e := &Extremes{
		MaxSystolic:  records[0].Systolic,
		MinSystolic:  records[0].Systolic,
		MaxDiastolic: records[0].Diastolic,
		MinDiastolic: records[0].Diastolic,
	}
	for _, r := range records {
		e.MaxSystolic = max(e.MaxSystolic, r.Systolic)
		e.MinSystolic = min(e.MinSystolic, r.Systolic)
		e.MaxDiastolic = max(e.MaxDiastolic, r.Diastolic)
		e.MinDiastolic = min(e.MinDiastolic, r.Diastolic)
		if r.Pulse == nil {
			continue
		}
		if e.MaxPulse == nil {
			maxP, minP := *r.Pulse, *r.Pulse
			e.MaxPulse, e.MinPulse = &maxP, &minP
			continue
		}
		*e.MaxPulse = max(*e.MaxPulse, *r.Pulse)
		*e.MinPulse = min(*e.MinPulse, *r.Pulse)
	}
	return e
}

// round1 rounds to one decimal place, halves away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
