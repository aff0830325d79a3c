package pipeline

import (
	"context"
	"fmt"
	"testing"
)

// ============================================================================
// Rule Benchmarks
// ============================================================================

// BenchmarkCanonicalGrade runs every row of a refresh through the grade table.
func BenchmarkCanonicalGrade(b *testing.B) {
	testCases := []string{
		"Standard 4",
		"  Grade 7 ",
		"Baby Class",
		"JSS 2",
		"Primary 3", // already canonical
		"unknown",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CanonicalGrade(tc)
		}
	}
}

// BenchmarkCondenseSubject covers early and late matches in the rule list.
func BenchmarkCondenseSubject(b *testing.B) {
	testCases := []struct{ subject, grade string }{
		{"Science", "Primary 5"},
		{"Supplemental English", "Primary 2"},
		{"KPSEA Prep English", "Primary 4"},
		{"Co-Curricular Activities", "Primary 1"},
		{"Something Else", "Primary 1"}, // falls through every rule
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CondenseSubject(tc.subject, tc.grade)
		}
	}
}

// BenchmarkClassifyLessonCode benchmarks the level rule scan.
func BenchmarkClassifyLessonCode(b *testing.B) {
	testCases := []string{"LDN4_C", "LBN2", "LEL3", "MATH101", ""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ClassifyLessonCode(tc)
		}
	}
}

// BenchmarkClassifyLessonCodeParallel benchmarks concurrent classification.
func BenchmarkClassifyLessonCodeParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ClassifyLessonCode("LDN4_C")
		}
	})
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// BenchmarkBuild runs all four stages over the default program count.
func BenchmarkBuild(b *testing.B) {
	for _, perSource := range []int{100, 1000} {
		b.Run(fmt.Sprintf("rows_per_source=%d", perSource), func(b *testing.B) {
			sources, fetcher := generateSources(11, perSource)
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, err := Build(ctx, fetcher, sources); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateSources builds n sources with rows tracker rows each.
func generateSources(n, rows int) ([]Source, *fakeFetcher) {
	grades := []string{"Standard 2", "Grade 4", "Class 6", "JSS 1"}
	subjects := []string{"Science", "Supplemental English", "Maths", "Literacy"}
	codes := []string{"LDN4_C", "LBN2", "LEL3", "XYZ"}

	sources := make([]Source, n)
	fetcher := &fakeFetcher{rows: make(map[string][]Row, n)}
	for s := range sources {
		id := fmt.Sprintf("src-%d", s)
		sources[s] = Source{ID: id, Program: fmt.Sprintf("Program %d", s)}

		data := make([]Row, rows)
		for r := range data {
			k := r % len(grades)
			data[r] = trackerRow(fmt.Sprintf("err-%d", r), grades[k], subjects[k], codes[k])
		}
		fetcher.rows[id] = data
	}
	return sources, fetcher
}
