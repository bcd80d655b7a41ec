package schedule

// Adjust returns the anchor that makes the first subject named name start on
// pinned when the same subjects are passed to Allocate. The relative layout
// of the subjects is unchanged; only the anchor moves.
//
// Names are not unique. The first match in order wins; callers that need an
// exact subject should use AdjustAt.
func Adjust(subjects []Subject, name string, pinned Day) (Day, error) {
	for i, s := range subjects {
		if s.Name == name {
			return AdjustAt(subjects, i, pinned)
		}
	}
	if err := Validate(subjects); err != nil {
		return Day{}, err
	}
	return Day{}, &NotFoundError{Name: name, Index: -1}
}

// AdjustAt is Adjust addressed by position in subjects.
func AdjustAt(subjects []Subject, index int, pinned Day) (Day, error) {
	if err := Validate(subjects); err != nil {
		return Day{}, err
	}
	if index < 0 || index >= len(subjects) {
		return Day{}, &NotFoundError{Index: index}
	}
	return pinned.AddDays(-OffsetDays(subjects, index)), nil
}

// OffsetDays is the number of days between the anchor and the start of
// subjects[index]: the sum of the durations before it.
func OffsetDays(subjects []Subject, index int) int {
	offset := 0
	for _, s := range subjects[:index] {
		offset += s.DurationDays
	}
	return offset
}
