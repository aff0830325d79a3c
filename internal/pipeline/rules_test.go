package pipeline

import (
	"strings"
	"testing"
)

func TestCanonicalGrade(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Standard 1", "Primary 1"},
		{"Grade 1", "Primary 1"},
		{"  Grade 2 ", "Primary 2"},
		{"Standard 3", "Primary 3"},
		{"Grade 4", "Primary 4"},
		{"Standard 5", "Primary 5"},
		{"Grade 6", "Primary 6"},
		{"Class 6", "Primary 6"},
		{"Class 7", "JSS 1"},
		{"Grade 7", "JSS 1"},
		{"Primary 7", "JSS 1"},
		{"Class 8", "JSS 2"},
		{"Class 9", "JSS 3"},
		{"Grade 10", "Class 10"},
		{"Class 10", "Class 10"},
		{"grade 1", "grade 1"},       // case-sensitive
		{" Nursery 2 ", "Nursery 2"}, // unmatched values are trimmed
		{"", ""},
	}

	for _, tt := range tests {
		if got := CanonicalGrade(tt.in); got != tt.want {
			t.Errorf("CanonicalGrade(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalGrade_Idempotent(t *testing.T) {
	inputs := []string{"Standard 1", " Grade 5", "Class 7 ", "Class 10", "Primary 4", "JSS 3", " Baby Class ", ""}
	for _, in := range inputs {
		once := CanonicalGrade(in)
		if twice := CanonicalGrade(once); twice != once {
			t.Errorf("CanonicalGrade not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCondenseSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		grade   string
		want    string
		wantOK  bool
	}{
		{"science at primary 5", "Science", "Primary 5", "Science (P4+)", true},
		{"basic science at JSS 2", "Basic Science and Technology - Basic Science", "JSS 2", "Science (P4+)", true},
		{"science & technology at class 10", " Science & Technology ", "Class 10", "Science (P4+)", true},
		{"science below primary 4 is unchanged", "Science", "Primary 3", "", false},
		{"bece", "BECE English Prep", "JSS 3", "BECE Prep", true},
		{"hslc", "HSLC Prep - Social Science", "Class 10", "HSLC Prep", true},
		{"kpsea", "KPSEA Prep Kiswahili", "Primary 6", "KPSEA Prep", true},
		{"co-curricular lower", "Co-curricular", "", "Co-Curricular", true},
		{"co curricular spaced", "Co Curricular", "", "Co-Curricular", true},
		{"co curricular spaced lower", "Co curricular", "", "Co-Curricular", true},
		{"cocurricular", "Cocurricular", "", "Co-Curricular", true},
		{"clubs", "Clubs", "", "Co-Curricular", true},
		{"english reading", "English Studies: Reading", "", "English Studies - Reading", true},
		{"english language", "English Studies - Language Arts", "", "English Studies - Language", true},
		{"mathematics 2", "Mathematics 2", "", "Mathematics", true},
		{"space mathematics", "Core Mathematics", "", "Mathematics", true},
		{"mathematics 1 with suffix", "Mathematics 1 Revision", "", "Mathematics", true},
		{"math", "Math", "", "Maths", true},
		{"maths", "Maths", "", "Maths", true},
		{"supplemental english", "Supplemental English", "", "Supplementary English", true},
		{"supplementary maths", "Supplementary Maths", "", "Supplementary Maths", true},
		{"preparatory english", "Preparatory English 1", "", "Preparatory English", true},
		{"preparatory maths", "Term 2 Preparatory Maths", "", "Preparatory Maths", true},
		{"social studies", "Social Studies 4", "", "Social Studies", true},
		{"social studies and science excluded", "Social Studies and Science", "", "", false},
		{"holiday day", "Labour Day", "", "Holiday Lesson(s)", true},
		{"holiday lowercase day", "Midterm break day", "", "Holiday Lesson(s)", true},
		{"holiday word", "Public holiday lesson", "", "Holiday Lesson(s)", true},
		{"mathematics wins over holiday", "Core Mathematics Day", "", "Mathematics", true},
		{"unknown", "Kiswahili", "Primary 2", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CondenseSubject(tt.subject, tt.grade)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CondenseSubject(%q, %q) = (%q, %v), want (%q, %v)",
					tt.subject, tt.grade, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSubjectRules_EachRuleMatchesItsOwnExample(t *testing.T) {
	examples := map[string][2]string{
		"science-p4-plus":       {"Science", "Primary 4"},
		"bece-prep":             {"BECE BST Prep", ""},
		"hslc-prep":             {"HSLC Prep - English", ""},
		"kpsea-prep":            {"KPSEA Prep English", ""},
		"co-curricular":         {"Clubs", ""},
		"english-reading":       {"English Studies Reading", ""},
		"english-language":      {"English Studies Language", ""},
		"mathematics":           {"Mathematics 3", ""},
		"maths":                 {"Maths", ""},
		"supplementary-english": {"Supplementary English", ""},
		"supplementary-maths":   {"Supplemental Maths", ""},
		"preparatory-english":   {"Preparatory English", ""},
		"preparatory-maths":     {"Preparatory Maths", ""},
		"social-studies":        {"Social Studies", ""},
		"holiday":               {"Heroes Day", ""},
	}

	if len(examples) != len(SubjectRules) {
		t.Fatalf("have %d examples for %d rules", len(examples), len(SubjectRules))
	}

	for _, r := range SubjectRules {
		ex, ok := examples[r.Name]
		if !ok {
			t.Errorf("no example for rule %q", r.Name)
			continue
		}
		if !r.Match(ex[0], ex[1]) {
			t.Errorf("rule %q does not match its example %q/%q", r.Name, ex[0], ex[1])
		}
	}
}

func TestClassifyLessonCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"LAL01", "Reading Level A"},
		{"LBL12_C", "Reading Level B - Contingency"},
		{" LCL3 ", "Reading Level C"},
		{"LDL4_C ", "Reading Level D - Contingency"},
		{"LEL5", "Reading Level E"},
		{"LALG01", "Reading Level A"}, // LAL shadows LALG
		{"LBLG02_C", "Reading Level B - Contingency"},
		{"LAN1", "Mathematics Level A"},
		{"LBN1_C", "Mathematics Level B - Contingency"},
		{"LCN_C", "Mathematics Level C - Contingency"},
		{"LDN7", "Mathematics Level D"},
		{"LEN9_C", "Mathematics Level E - Contingency"},
		{"LEN9_c", "Mathematics Level E"},
		{"lal01", ""},
		{"ZZ99", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ClassifyLessonCode(tt.code); got != tt.want {
			t.Errorf("ClassifyLessonCode(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestLevelRules_LanguageLevelsNeverContingent(t *testing.T) {
	for _, r := range LevelRules {
		if strings.HasPrefix(r.Label, "Language") && r.Contingency {
			t.Errorf("rule %s: language levels have no contingency variant", r.Prefix)
		}
	}
}
