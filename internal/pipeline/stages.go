package pipeline

import (
	"fmt"
	"log/slog"
)

// NormalizeGrades rewrites every grade cell with its canonical grade and
// returns the normalized column. Unmatched values are written back trimmed.
func NormalizeGrades(t *Table) ([]string, error) {
	grades := t.Column(ColGrade)
	for i, g := range grades {
		grades[i] = CanonicalGrade(g)
	}
	if err := t.SetColumn(ColGrade, grades); err != nil {
		return nil, fmt.Errorf("normalize grades: %w", err)
	}
	return grades, nil
}

// CondenseSubjects rewrites subject cells that match a SubjectRule.
// grades is the normalized grade column, index-aligned with the rows.
// Unmatched cells keep their original, untrimmed value.
func CondenseSubjects(t *Table, grades []string) error {
	if len(grades) != t.Len() {
		return fmt.Errorf("condense subjects: got %d grades for %d rows", len(grades), t.Len())
	}

	subjects := t.Column(ColSubject)
	changed := 0
	for i, raw := range subjects {
		if v, ok := CondenseSubject(raw, grades[i]); ok {
			subjects[i] = v
			changed++
		}
	}
	if err := t.SetColumn(ColSubject, subjects); err != nil {
		return fmt.Errorf("condense subjects: %w", err)
	}

	slog.Debug("subjects condensed", "rows", t.Len(), "changed", changed)
	return nil
}

// ClassifyLevels derives the level column from the lesson codes, writes it
// and returns it. The result has one label per row.
func ClassifyLevels(t *Table) ([]string, error) {
	codes := t.Column(ColLessonCode)
	levels := make([]string, len(codes))
	for i, code := range codes {
		levels[i] = ClassifyLessonCode(code)
	}
	if err := t.SetColumn(ColLevel, levels); err != nil {
		return nil, fmt.Errorf("classify levels: %w", err)
	}
	return levels, nil
}
