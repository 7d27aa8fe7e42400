package record

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var labelPattern = regexp.MustCompile(`\n(.*?):`)

// GradeRange returns the text strictly between the bracket markers for grade
// and nextGrade, or from grade's marker to the end of the document when
// nextGrade is 0 (the final year). The match is non-greedy: the first
// following marker wins, so a later spurious marker cannot swallow a year.
func GradeRange(text string, grade, nextGrade int, m Markers) string {
	start := regexp.QuoteMeta("[" + m.GradeLabel(grade) + "]")

	var pattern *regexp.Regexp
	if nextGrade > 0 {
		end := regexp.QuoteMeta("[" + m.GradeLabel(nextGrade) + "]")
		pattern = regexp.MustCompile(`(?s)` + start + `(.*?)` + end)
	} else {
		pattern = regexp.MustCompile(`(?s)` + start + `(.*)`)
	}

	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}

// subjectLabel is one colon-terminated label found in a grade range
type subjectLabel struct {
	name string
	// start of the label text, end of the colon (byte offsets into the range)
	start, end int
}

// SubjectMap splits a grade range into subject → narrative entries. Labels are
// colon-terminated line starts shorter than the length cutoff (longer strings
// are narrative that happens to end in a colon). The scan is a single forward
// pass: label i's value ends where label i+1 begins, so overlapping matches
// never need disambiguating. First occurrence of a duplicate label wins.
func SubjectMap(rangeText string, m Markers) map[string]string {
	matches := labelPattern.FindAllStringSubmatchIndex(rangeText, -1)

	var labels []subjectLabel
	seen := make(map[string]bool)
	for _, idx := range matches {
		name := strings.TrimSpace(rangeText[idx[2]:idx[3]])
		if name == "" || utf8.RuneCountInString(name) >= m.MaxSubjectLabelLen {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		labels = append(labels, subjectLabel{name: name, start: idx[2], end: idx[1]})
	}

	subjects := make(map[string]string, len(labels))
	for i, label := range labels {
		var value string
		if i+1 < len(labels) {
			value = rangeText[label.end:labels[i+1].start]
		} else {
			value = rangeText[label.end:]
		}
		subjects[label.name] = strings.TrimSpace(value)
	}

	return subjects
}

// SplitCareerElective repairs a known NEIS export quirk: the elective-subject
// section has no label of its own, so the generic scan attributes it to
// whichever subject precedes it. The subject value containing the marker is
// split on its first blank line; the front half stays under the subject, the
// back half (marker removed) moves to the individual-abilities key.
func SplitCareerElective(subjects map[string]string, m Markers) map[string]string {
	var keyWithElective string
	for key, value := range subjects {
		if strings.Contains(value, m.CareerElective) {
			keyWithElective = key
			break
		}
	}
	if keyWithElective == "" {
		return subjects
	}

	value := subjects[keyWithElective]
	front, back, found := strings.Cut(value, "\n\n")
	if !found {
		return subjects
	}

	subjects[keyWithElective] = front
	subjects[m.IndividualKey] = strings.TrimSpace(strings.ReplaceAll(back, m.CareerElective, ""))
	return subjects
}
