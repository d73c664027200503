package pricing

import "strings"

const (
	FieldMarkupPercent = "markup_percent"
	labourFieldPrefix  = "labour_hours."
)

// LabourField returns the override field path for a labour task.
func LabourField(task LabourTask) string {
	return labourFieldPrefix + string(task)
}

// ApplyOverrides substitutes override values into a copy of in, so that aggregation runs
// on the overridden inputs and every downstream total stays consistent. Original values
// come from in, never from the caller. Overrides must already be validated.
func ApplyOverrides(in Input) (Input, []AppliedOverride) {
	if len(in.Overrides) == 0 {
		return in, nil
	}

	out := in
	applied := make([]AppliedOverride, 0, len(in.Overrides))
	for _, o := range in.Overrides {
		var original float64
		switch {
		case o.FieldPath == FieldMarkupPercent:
			original = in.MarkupPercent
			out.MarkupPercent = o.Override
		case strings.HasPrefix(o.FieldPath, labourFieldPrefix):
			task := LabourTask(strings.TrimPrefix(o.FieldPath, labourFieldPrefix))
			original = in.LabourHours.Hours(task)
			out.LabourHours.set(task, o.Override)
		default:
			continue
		}

		applied = append(applied, AppliedOverride{
			FieldPath:  o.FieldPath,
			Original:   original,
			Override:   o.Override,
			ReasonCode: o.ReasonCode,
			Note:       strings.TrimSpace(o.Note),
		})
	}

	if len(applied) == 0 {
		return out, nil
	}
	return out, applied
}
