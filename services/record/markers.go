package record

import (
	"fmt"
	"regexp"
)

// Markers holds every delimiter phrase the pipeline keys on. School records
// exported by different NEIS versions vary in header wording, so the marker
// set is data, not control flow, and tests run against synthetic documents.
type Markers struct {
	// Noise patterns stripped from every block before filtering
	NoisePatterns []*regexp.Regexp

	// Keywords that force a line to be kept regardless of length
	Keywords []string
	// Lines longer than this are assumed to be narrative and kept
	MinNarrativeLen int

	// GradeLabelFormat renders a grade number into its bracket label,
	// e.g. 1 → "1학년" (the document delimits years as "[1학년]")
	GradeLabelFormat string
	// Grades in the document, in order
	Grades []int

	// Labels longer than this are assumed to be narrative text that happens
	// to end in a colon, not subject labels
	MaxSubjectLabelLen int

	// CareerElective marks the section a NEIS export misattributes to the
	// preceding subject; the text after it is reassigned to IndividualKey
	CareerElective string
	IndividualKey  string

	// Activity section delimiters
	SelfDirected string
	Club         string
	Career       string
	Volunteer    string

	// BehavioralComment is the header of the trailing free-text section
	Behavioral string
}

// DefaultMarkers returns the marker set for a standard NEIS school-record PDF
func DefaultMarkers() Markers {
	return Markers{
		NoisePatterns: []*regexp.Regexp{
			// Print timestamp line, e.g. "... 2024.03.15 13:02/ ..."
			regexp.MustCompile(`(?s)^.*?\d{4}\.\d{2}\.\d{2} \d{2}:\d{2}/.*?\n`),
			// Repeated table header on every page
			regexp.MustCompile(`과목\s+세 부 능 력 및 특 기 사 항\n`),
		},
		Keywords: []string{
			"자율활동", "동아리활동", "진로활동", "창 의 적 체 험 활 동 상 황", "봉 사 활 동 실 적",
			"[1학년]", "[2학년]", "[3학년]", "행 동 특 성 및 종 합 의 견", "<진로 선택 과목>",
		},
		MinNarrativeLen:    30,
		GradeLabelFormat:   "%d학년",
		Grades:             []int{1, 2, 3},
		MaxSubjectLabelLen: 12,
		CareerElective:     "<진로 선택 과목>",
		IndividualKey:      "개인별 세부능력 특기사항",
		SelfDirected:       "자율활동",
		Club:               "동아리활동",
		Career:             "진로활동",
		Volunteer:          "봉 사 활 동 실 적",
		Behavioral:         "행 동 특 성 및 종 합 의 견",
	}
}

// GradeLabel renders the label for a grade number, e.g. 2 → "2학년"
func (m Markers) GradeLabel(grade int) string {
	return fmt.Sprintf(m.GradeLabelFormat, grade)
}
