package schedule

import "strconv"

// Validate checks that every subject can be scheduled. It returns the first
// offending subject as a *ValidationError.
func Validate(subjects []Subject) error {
	for i, s := range subjects {
		if s.DurationDays < 1 {
			return &ValidationError{
				Index:    i,
				Name:     s.Name,
				Duration: s.DurationDays,
				Reason:   "duration must be at least 1 day",
			}
		}
	}
	return nil
}

// ValidateUniqueNames rejects subject lists where a name repeats. Callers that
// address subjects by name should run it when accepting input.
func ValidateUniqueNames(subjects []Subject) error {
	seen := make(map[string]int, len(subjects))
	for i, s := range subjects {
		if first, ok := seen[s.Name]; ok {
			return &ValidationError{
				Index:    i,
				Name:     s.Name,
				Duration: s.DurationDays,
				Reason:   "name already used by subject " + strconv.Itoa(first),
			}
		}
		seen[s.Name] = i
	}
	return nil
}

// Allocate lays subjects out back to back starting on anchor. The first
// subject starts on anchor and each following subject starts the day after
// the previous one ends. An empty list yields an empty Schedule.
func Allocate(anchor Day, subjects []Subject) (Schedule, error) {
	if err := Validate(subjects); err != nil {
		return nil, err
	}

	out := make(Schedule, 0, len(subjects))
	cursor := anchor
	for _, s := range subjects {
		end := cursor.AddDays(s.DurationDays - 1)
		out = append(out, ScheduledSubject{
			Subject: s,
			Start:   cursor,
			End:     end,
		})
		cursor = end.AddDays(1)
	}
	return out, nil
}
