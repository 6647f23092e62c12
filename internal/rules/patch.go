package rules

import (
	"strconv"
	"strings"
)

// PatchLine is a line added by a unified diff hunk.
type PatchLine struct {
	Number int
	Text   string
}

// hunk is the line accounting of one "@@ -a,b +c,d @@" section.
type hunk struct {
	start    int
	oldLines int
	newLines int
}

func (h *hunk) open() bool {
	return h.oldLines > 0 || h.newLines > 0
}

// AddedLines walks a unified diff and returns the added lines with their
// line numbers in the new file. Text without hunk headers is numbered from 1.
//
// Inside a hunk every line is body until the header's line counts are used
// up, so an added line such as "++i;" (patch text "+++i;") is never taken
// for a file header.
func AddedLines(patch string) []PatchLine {
	if patch == "" {
		return nil
	}

	var (
		out     []PatchLine
		line    = 1
		current hunk
	)
	for _, raw := range strings.Split(patch, "\n") {
		if current.open() {
			switch {
			case strings.HasPrefix(raw, "+"):
				out = append(out, PatchLine{Number: line, Text: strings.TrimSuffix(raw[1:], "\r")})
				line++
				current.newLines--
			case strings.HasPrefix(raw, "-"):
				current.oldLines--
			case strings.HasPrefix(raw, `\`):
				// "\ No newline at end of file"
			default:
				line++
				current.oldLines--
				current.newLines--
			}
			continue
		}

		switch {
		case strings.HasPrefix(raw, "@@"):
			if h, ok := parseHunk(raw); ok {
				current = h
				line = h.start
			}
		case strings.HasPrefix(raw, "+++"), strings.HasPrefix(raw, "---"), strings.HasPrefix(raw, `\`):
			// file headers and "\ No newline at end of file"
		case strings.HasPrefix(raw, "+"):
			out = append(out, PatchLine{Number: line, Text: strings.TrimSuffix(raw[1:], "\r")})
			line++
		case strings.HasPrefix(raw, "-"):
		default:
			line++
		}
	}
	return out
}

// hunkStart extracts the new-file start line from "@@ -a,b +c,d @@".
func hunkStart(header string) (int, bool) {
	h, ok := parseHunk(header)
	return h.start, ok
}

// parseHunk reads "@@ -a[,b] +c[,d] @@". Omitted counts default to 1.
func parseHunk(header string) (hunk, bool) {
	fields := strings.Fields(strings.TrimPrefix(header, "@@"))
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return hunk{}, false
	}
	_, oldLines, ok := parseRange(fields[0][1:])
	if !ok {
		return hunk{}, false
	}
	start, newLines, ok := parseRange(fields[1][1:])
	if !ok {
		return hunk{}, false
	}
	return hunk{start: start, oldLines: oldLines, newLines: newLines}, true
}

func parseRange(r string) (start, count int, ok bool) {
	first, rest, hasCount := strings.Cut(r, ",")
	start, err := strconv.Atoi(first)
	if err != nil {
		return 0, 0, false
	}
	if !hasCount {
		return start, 1, true
	}
	count, err = strconv.Atoi(rest)
	if err != nil {
		return 0, 0, false
	}
	return start, count, true
}
