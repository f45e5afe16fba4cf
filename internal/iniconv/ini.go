// Package iniconv converts between the networkd INI convention and a
// structured JSON form, using a derived schema document as the typing
// contract for value coercion.
package iniconv

import "strings"

// Property holds every value assigned to one key within a section block,
// in file order. Repeated assignments accumulate.
type Property struct {
	Key    string
	Values []string
}

// SectionBlock is one [Section] occurrence as it appears in the file,
// together with the comments attached to it.
type SectionBlock struct {
	Name  string
	Props []Property
	// Comments are the comment lines immediately preceding the section
	// header.
	Comments []string
	// PropComments maps a key to the comment lines preceding its
	// assignments.
	PropComments map[string][]string
}

func (b *SectionBlock) addValue(key, value string) {
	for i := range b.Props {
		if b.Props[i].Key == key {
			b.Props[i].Values = append(b.Props[i].Values, value)
			return
		}
	}
	b.Props = append(b.Props, Property{Key: key, Values: []string{value}})
}

func (b *SectionBlock) addPropComments(key string, comments []string) {
	if b.PropComments == nil {
		b.PropComments = make(map[string][]string)
	}
	b.PropComments[key] = append(b.PropComments[key], comments...)
}

type logicalLine struct {
	comment bool
	text    string
}

// logicalLines folds the file into logical lines: a trailing backslash
// joins the next line with a space, comment lines (# or ;) pass through
// separately and are dropped entirely inside a continuation, empty lines
// disappear.
func logicalLines(content string) []logicalLine {
	var (
		out          []logicalLine
		buffer       []string
		continuation bool
	)
	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, ";") {
			if !continuation {
				out = append(out, logicalLine{comment: true, text: stripped})
			}
			continue
		}
		if stripped == "" {
			continue
		}
		if strings.HasSuffix(stripped, "\\") {
			buffer = append(buffer, strings.TrimSpace(strings.TrimSuffix(stripped, "\\")))
			continuation = true
			continue
		}
		buffer = append(buffer, stripped)
		out = append(out, logicalLine{text: strings.Join(buffer, " ")})
		buffer = nil
		continuation = false
	}
	if len(buffer) > 0 {
		out = append(out, logicalLine{text: strings.Join(buffer, " ")})
	}
	return out
}

// ParseINI splits a configuration file into its section blocks. Assignments
// outside any section and lines that are neither headers nor assignments
// are dropped, matching how the daemon itself tolerates them.
func ParseINI(content []byte) []*SectionBlock {
	var (
		sections []*SectionBlock
		current  *SectionBlock
		pending  []string
	)
	for _, line := range logicalLines(string(content)) {
		if line.comment {
			pending = append(pending, line.text)
			continue
		}
		if strings.HasPrefix(line.text, "[") {
			if end := strings.Index(line.text, "]"); end > 1 {
				current = &SectionBlock{Name: line.text[1:end]}
				if len(pending) > 0 {
					current.Comments = pending
					pending = nil
				}
				sections = append(sections, current)
				continue
			}
		}
		if eq := strings.Index(line.text, "="); eq > 0 && current != nil {
			key := strings.TrimSpace(line.text[:eq])
			value := strings.TrimSpace(line.text[eq+1:])
			current.addValue(key, value)
			if len(pending) > 0 {
				current.addPropComments(key, pending)
				pending = nil
			}
		}
	}
	if len(pending) > 0 && len(sections) > 0 {
		last := sections[len(sections)-1]
		last.Comments = append(last.Comments, pending...)
	}
	return sections
}
