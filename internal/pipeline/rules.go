package pipeline

import (
	"slices"
	"strings"
)

// GradeRule maps any of several raw grade labels to one canonical grade.
type GradeRule struct {
	From []string
	To   string
}

// GradeRules is evaluated top to bottom; matching is exact and
// case-sensitive on the trimmed value.
var GradeRules = []GradeRule{
	{From: []string{"Standard 1", "Grade 1"}, To: "Primary 1"},
	{From: []string{"Standard 2", "Grade 2"}, To: "Primary 2"},
	{From: []string{"Standard 3", "Grade 3"}, To: "Primary 3"},
	{From: []string{"Standard 4", "Grade 4"}, To: "Primary 4"},
	{From: []string{"Standard 5", "Grade 5"}, To: "Primary 5"},
	{From: []string{"Grade 6", "Class 6"}, To: "Primary 6"},
	{From: []string{"Class 7", "Grade 7", "Primary 7"}, To: "JSS 1"},
	{From: []string{"Class 8"}, To: "JSS 2"},
	{From: []string{"Class 9"}, To: "JSS 3"},
	{From: []string{"Class 10", "Grade 10"}, To: "Class 10"},
}

// CanonicalGrade trims s and maps it through GradeRules.
// Unmatched values are returned trimmed.
func CanonicalGrade(s string) string {
	s = strings.TrimSpace(s)
	for _, r := range GradeRules {
		if slices.Contains(r.From, s) {
			return r.To
		}
	}
	return s
}

// SubjectRule rewrites a subject to Value when Match reports true.
// Match receives the trimmed subject and the normalized grade of the row.
type SubjectRule struct {
	Name  string
	Match func(subject, grade string) bool
	Value string
}

// GradesFourAndUp are the grades whose science subjects condense to
// "Science (P4+)".
var GradesFourAndUp = []string{"Primary 4", "Primary 5", "Primary 6", "JSS 1", "JSS 2", "JSS 3", "Class 10"}

var (
	scienceSubjects = []string{
		"Basic Science and Technology",
		"Basic Science and Technology - Basic Science",
		"Science",
		"Science & Technology",
	}
	becePrep = []string{
		"BECE BST Prep",
		"BECE English Prep",
		"BECE Mathematics Prep",
		"BECE National Values Prep",
		"BECE Pre-Vocational Studies Prep",
	}
	hslcPrep = []string{
		"HSLC Prep - English",
		"HSLC Prep - Mathematics",
		"HSLC Prep - Science",
		"HSLC Prep - Social Science",
	}
	kpseaPrep = []string{
		"KPSEA Prep Creative Arts",
		"KPSEA Prep Creative Arts and Social Studies",
		"KPSEA Prep English",
		"KPSEA Prep Integrated Sciences",
		"KPSEA Prep Kiswahili",
		"KPSEA Prep Mathematics",
		"KPSEA Prep Science & Technology",
		"KPSEA Prep Social Studies",
	}
	coCurricular = []string{"Co-curricular", "Co-Curricular", "Co Curricular", "Co curricular", "Cocurricular", "Clubs"}
	holidayWords = []string{"Day", "day", " Day", " Day ", " holiday", " holiday "}
)

// oneOf matches a subject exactly against a fixed set.
func oneOf(set ...string) func(string, string) bool {
	return func(subject, _ string) bool {
		return slices.Contains(set, subject)
	}
}

// containsAll matches a subject containing every fragment.
func containsAll(fragments ...string) func(string, string) bool {
	return func(subject, _ string) bool {
		for _, f := range fragments {
			if !strings.Contains(subject, f) {
				return false
			}
		}
		return true
	}
}

// containsAny matches a subject containing at least one fragment.
func containsAny(fragments ...string) func(string, string) bool {
	return func(subject, _ string) bool {
		for _, f := range fragments {
			if strings.Contains(subject, f) {
				return true
			}
		}
		return false
	}
}

// SubjectRules is evaluated top to bottom, first match wins.
// Several predicates overlap, so order is part of the contract.
var SubjectRules = []SubjectRule{
	{
		Name: "science-p4-plus",
		Match: func(subject, grade string) bool {
			return slices.Contains(GradesFourAndUp, grade) && slices.Contains(scienceSubjects, subject)
		},
		Value: "Science (P4+)",
	},
	{Name: "bece-prep", Match: oneOf(becePrep...), Value: "BECE Prep"},
	{Name: "hslc-prep", Match: oneOf(hslcPrep...), Value: "HSLC Prep"},
	{Name: "kpsea-prep", Match: oneOf(kpseaPrep...), Value: "KPSEA Prep"},
	{Name: "co-curricular", Match: oneOf(coCurricular...), Value: "Co-Curricular"},
	{Name: "english-reading", Match: containsAll("English Studies", "Reading"), Value: "English Studies - Reading"},
	{Name: "english-language", Match: containsAll("English Studies", "Language"), Value: "English Studies - Language"},
	{
		Name: "mathematics",
		Match: func(subject, grade string) bool {
			return oneOf("Mathematics 1", "Mathematics 2", "Mathematics 3")(subject, grade) ||
				containsAny(" Mathematics", "Mathematics 1 ", "Mathematics 2 ")(subject, grade)
		},
		Value: "Mathematics",
	},
	{Name: "maths", Match: oneOf("Maths", "Math"), Value: "Maths"},
	{Name: "supplementary-english", Match: oneOf("Supplementary English", "Supplemental English"), Value: "Supplementary English"},
	{Name: "supplementary-maths", Match: oneOf("Supplementary Maths", "Supplemental Maths"), Value: "Supplementary Maths"},
	{Name: "preparatory-english", Match: containsAny("Preparatory English"), Value: "Preparatory English"},
	{Name: "preparatory-maths", Match: containsAny("Preparatory Maths"), Value: "Preparatory Maths"},
	{
		Name: "social-studies",
		Match: func(subject, _ string) bool {
			return subject != "Social Studies and Science" && strings.Contains(subject, "Social Studies")
		},
		Value: "Social Studies",
	},
	{Name: "holiday", Match: containsAny(holidayWords...), Value: "Holiday Lesson(s)"},
}

// CondenseSubject returns the canonical subject for a raw subject and its
// row's normalized grade. ok is false when no rule matched, in which case
// the caller keeps the original cell.
func CondenseSubject(raw, grade string) (value string, ok bool) {
	subject := strings.TrimSpace(raw)
	for _, r := range SubjectRules {
		if r.Match(subject, grade) {
			return r.Value, true
		}
	}
	return "", false
}

// LevelRule maps a lesson-code prefix to a curriculum level label.
type LevelRule struct {
	Prefix string
	Label  string
	// Contingency reports whether a "_C" suffix marks a contingency variant.
	Contingency bool
}

// ContingencySuffix marks a contingency lesson code.
const ContingencySuffix = "_C"

// LevelRules is evaluated in order, first matching prefix wins.
// LAL and LBL precede LALG and LBLG, so the language levels never match.
var LevelRules = []LevelRule{
	{Prefix: "LAL", Label: "Reading Level A", Contingency: true},
	{Prefix: "LBL", Label: "Reading Level B", Contingency: true},
	{Prefix: "LCL", Label: "Reading Level C", Contingency: true},
	{Prefix: "LDL", Label: "Reading Level D", Contingency: true},
	{Prefix: "LEL", Label: "Reading Level E", Contingency: true},
	{Prefix: "LALG", Label: "Language Level A"},
	{Prefix: "LBLG", Label: "Language Level B"},
	{Prefix: "LAN", Label: "Mathematics Level A", Contingency: true},
	{Prefix: "LBN", Label: "Mathematics Level B", Contingency: true},
	{Prefix: "LCN", Label: "Mathematics Level C", Contingency: true},
	{Prefix: "LDN", Label: "Mathematics Level D", Contingency: true},
	{Prefix: "LEN", Label: "Mathematics Level E", Contingency: true},
}

// ClassifyLessonCode returns the level label for a lesson code, or "" when
// no prefix matches.
func ClassifyLessonCode(code string) string {
	code = strings.TrimSpace(code)
	for _, r := range LevelRules {
		if !strings.HasPrefix(code, r.Prefix) {
			continue
		}
		if r.Contingency && strings.HasSuffix(code, ContingencySuffix) {
			return r.Label + " - Contingency"
		}
		return r.Label
	}
	return ""
}
