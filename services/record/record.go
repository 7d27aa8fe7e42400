// Package record turns the OCR-prone text of a Korean school-record PDF
// (생활기록부) into a structured mapping of grade → subject → narrative, plus
// the creative-activity sections and the trailing behavioral comment.
//
// The pipeline is strictly sequential and each stage is stateless given the
// previous stage's output: block filtering → merge → grade ranges → subject
// maps → elective split → activity windows → behavioral comment. Missing
// structure degrades to empty or sentinel values; only unreadable source
// bytes are an error, and that error belongs to the extractor upstream.
package record

import "strings"

// StructuredRecord is the pipeline's output
type StructuredRecord struct {
	// SubjectsByGrade maps grade → subject label → narrative text
	SubjectsByGrade map[int]map[string]string
	Activities      ActivitySections
	// BehavioralComment is the trailing free-text section, empty when absent
	BehavioralComment string
}

// Parse runs the full pipeline over the ordered page texts
func Parse(pages []Page, m Markers) *StructuredRecord {
	doc := BuildDocument(pages, m)
	return ParseDocument(doc, m)
}

// ParseDocument runs every stage after filtering/merging. Split out so tests
// can feed synthetic documents directly.
func ParseDocument(doc Document, m Markers) *StructuredRecord {
	subjectsByGrade := make(map[int]map[string]string, len(m.Grades))

	for i, grade := range m.Grades {
		nextGrade := 0
		if i+1 < len(m.Grades) {
			nextGrade = m.Grades[i+1]
		}

		rangeText := GradeRange(doc.Text, grade, nextGrade, m)
		subjects := SubjectMap(rangeText, m)
		subjects = SplitCareerElective(subjects, m)

		// Prompt templates want single-line narratives
		for key, value := range subjects {
			subjects[key] = strings.ReplaceAll(value, "\n", " ")
		}

		subjectsByGrade[grade] = subjects
	}

	return &StructuredRecord{
		SubjectsByGrade:   subjectsByGrade,
		Activities:        ExtractActivities(doc.MergedText, m),
		BehavioralComment: BehavioralComment(doc.MergedText, m),
	}
}

// Empty reports whether the pipeline found no content at all. An empty result
// on a readable document means the upload was not a school record (or OCR
// produced nothing usable) and is treated as a validation failure upstream.
func (r *StructuredRecord) Empty() bool {
	for _, subjects := range r.SubjectsByGrade {
		if len(subjects) > 0 {
			return false
		}
	}
	for _, sections := range []map[int]string{r.Activities.SelfDirected, r.Activities.Club, r.Activities.Career} {
		for _, text := range sections {
			if text != "" && text != MissingSection {
				return false
			}
		}
	}
	return r.BehavioralComment == ""
}
