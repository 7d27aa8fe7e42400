package record

import (
	"regexp"
	"strings"
)

// MissingSection is recorded for a grade with no matching activity window.
// Callers must treat it as "no data", never as literal content.
const MissingSection = "0"

// ActivitySections maps grade → narrative for each creative-activity category
type ActivitySections struct {
	SelfDirected map[int]string
	Club         map[int]string
	Career       map[int]string
}

// ExtractActivities locates the three activity windows in the merged
// (newline-free) text. Matches are assigned positionally to grades in
// document order; a grade with no match receives the MissingSection sentinel
// so downstream prompt templating always has a value per grade.
func ExtractActivities(merged string, m Markers) ActivitySections {
	selfPattern := regexp.MustCompile(regexp.QuoteMeta(m.SelfDirected) + `(.*?)` + regexp.QuoteMeta(m.Club))
	clubPattern := regexp.MustCompile(regexp.QuoteMeta(m.Club) + `(.*?)` + regexp.QuoteMeta(m.Career))

	// The career section's terminator differs by year: earlier grades run into
	// the next year's self-directed section, the final grade runs into the
	// volunteer-record table.
	careerToSelf := regexp.MustCompile(regexp.QuoteMeta(m.Career) + `(.*?)` + regexp.QuoteMeta(m.SelfDirected))
	careerToVolunteer := regexp.MustCompile(regexp.QuoteMeta(m.Career) + `(.*?)` + regexp.QuoteMeta(m.Volunteer))

	selfMatches := captures(selfPattern, merged)
	clubMatches := captures(clubPattern, merged)

	careerMatches := captures(careerToSelf, merged)
	for _, match := range captures(careerToVolunteer, merged) {
		// The window must not span another career marker; when it does, only
		// the text after the last one is the final grade's section.
		if idx := strings.LastIndex(match, m.Career); idx >= 0 {
			match = match[idx+len(m.Career):]
		}
		careerMatches = append(careerMatches, match)
	}

	sections := ActivitySections{
		SelfDirected: make(map[int]string, len(m.Grades)),
		Club:         make(map[int]string, len(m.Grades)),
		Career:       make(map[int]string, len(m.Grades)),
	}

	for i, grade := range m.Grades {
		sections.SelfDirected[grade] = pick(selfMatches, i)
		sections.Club[grade] = pick(clubMatches, i)
		sections.Career[grade] = pick(careerMatches, i)
	}

	return sections
}

// BehavioralComment returns everything after the behavioral-characteristics
// header, or the empty string when the header is absent.
func BehavioralComment(merged string, m Markers) string {
	idx := strings.Index(merged, m.Behavioral)
	if idx < 0 {
		return ""
	}
	return merged[idx+len(m.Behavioral):]
}

func captures(pattern *regexp.Regexp, text string) []string {
	var out []string
	for _, match := range pattern.FindAllStringSubmatch(text, -1) {
		out = append(out, match[1])
	}
	return out
}

func pick(matches []string, i int) string {
	if i < len(matches) {
		return matches[i]
	}
	return MissingSection
}
