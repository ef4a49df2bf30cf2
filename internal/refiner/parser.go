package refiner

import "strings"

const (
	sectionStartMarker = "[SECTION_START]"
	sectionEndMarker   = "[SECTION_END]"
)

// ParseSections scans marker-delimited refinement output with two states,
// outside and inside a section. A start marker begins accumulation (and
// resets any partial accumulation), an end marker emits the accumulated
// text. Content outside markers and unterminated trailing content are
// dropped.
func ParseSections(refined string) []string {
	var sections []string
	var current []string
	inside := false

	for _, line := range strings.Split(refined, "\n") {
		switch strings.TrimSpace(line) {
		case sectionStartMarker:
			current = current[:0]
			inside = true
		case sectionEndMarker:
			if inside {
				if text := strings.TrimSpace(strings.Join(current, "\n")); text != "" {
					sections = append(sections, text)
				}
			}
			current = current[:0]
			inside = false
		default:
			if inside {
				current = append(current, line)
			}
		}
	}
	return sections
}
