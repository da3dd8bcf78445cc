// Package listing parses POSIX long-format directory listings ("ls -la"
// style lines), shared by the SCP backend (which runs `ls -la` over an
// exec channel) and the FTP backend (whose LIST command conventionally
// returns the same format). Parsing is tolerant: a line that cannot be
// parsed is skipped rather than surfaced as an error, and a date that
// cannot be parsed falls back to the Unix epoch rather than failing the
// whole listing.
package listing

import (
	"strconv"
	"strings"
	"time"

	"gateway/internal/fsmodel"
)

// Parse parses every line of a long listing rooted at dir, returning one
// Entry per line. "." and ".." entries are dropped. dir must already be
// an absolute, normalized path.
func Parse(dir string, raw string) []fsmodel.Entry {
	lines := strings.Split(raw, "\n")
	entries := make([]fsmodel.Entry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "total ") {
			continue
		}
		entry, ok := parseLine(dir, line)
		if !ok {
			continue
		}
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseLine(dir, line string) (fsmodel.Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return fsmodel.Entry{}, false
	}

	modeField := fields[0]
	if len(modeField) < 1 {
		return fsmodel.Entry{}, false
	}

	// fields[1] is the link count; fields[2] and fields[3] are owner and
	// group on most servers, but some omit the group column, shifting
	// everything left by one. A rightmost-integer scan misparses any name
	// containing digits (day/year are integers too and sit further
	// right than size). Anchor instead on the shape only the date triple
	// has: an integer (size), immediately followed by a non-numeric token
	// (month), immediately followed by another integer (day). A name
	// field made of digits can still satisfy "integer" on its own, but it
	// can't also make its right neighbor non-numeric and the one after
	// that numeric again, so this scan finds the true size column first.
	rest := fields[1:]

	sizeIdx := -1
	for i := 1; i+4 <= len(rest); i++ {
		if _, err := strconv.ParseInt(rest[i], 10, 64); err != nil {
			continue
		}
		if _, err := strconv.ParseInt(rest[i+1], 10, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseInt(rest[i+2], 10, 64); err != nil {
			continue
		}
		sizeIdx = i
		break
	}
	if sizeIdx < 0 || sizeIdx+3 >= len(rest) {
		return fsmodel.Entry{}, false
	}

	sizeStr := rest[sizeIdx]
	month := rest[sizeIdx+1]
	day := rest[sizeIdx+2]
	timeOrYear := rest[sizeIdx+3]
	nameFields := rest[sizeIdx+4:]
	if len(nameFields) == 0 {
		return fsmodel.Entry{}, false
	}
	name := strings.Join(nameFields, " ")

	var symlinkTo string
	if idx := strings.Index(name, " -> "); idx >= 0 {
		symlinkTo = name[idx+4:]
		name = name[:idx]
	}

	size, _ := strconv.ParseInt(sizeStr, 10, 64)
	modTime := parseTimestamp(month, day, timeOrYear)

	kind := fsmodel.KindFile
	if modeField[0] == 'd' {
		kind = fsmodel.KindDirectory
	}
	isLink := modeField[0] == 'l' || symlinkTo != ""

	fullPath := fsmodel.Normalize(dir + "/" + name)

	var entry fsmodel.Entry
	if kind == fsmodel.KindDirectory {
		entry = fsmodel.NewDirectory(name, fullPath, modTime)
	} else {
		entry = fsmodel.NewFile(name, fullPath, size, modTime)
	}
	entry.SymlinkTo = symlinkTo
	if mode, ok := parseMode(modeField); ok {
		entry.Mode = mode
	}
	_ = isLink
	return entry, true
}

func parseMode(modeField string) (*fsmodel.Permissions, bool) {
	if len(modeField) < 10 {
		return nil, false
	}
	bits := modeField[1:10]
	triple := func(s string) fsmodel.Triple {
		return fsmodel.Triple{
			Read:    s[0] == 'r',
			Write:   s[1] == 'w',
			Execute: s[2] == 'x' || s[2] == 's' || s[2] == 't',
		}
	}
	return &fsmodel.Permissions{
		User:  triple(bits[0:3]),
		Group: triple(bits[3:6]),
		Other: triple(bits[6:9]),
	}, true
}

var monthIndex = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// parseTimestamp handles both "Mon DD HH:MM" (current-year, no year
// shown) and "Mon DD YYYY" (older than ~6 months) forms. An unparseable
// combination falls back silently to the Unix epoch.
func parseTimestamp(month, day, timeOrYear string) time.Time {
	m, ok := monthIndex[month]
	if !ok {
		return time.Unix(0, 0).UTC()
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}

	if strings.Contains(timeOrYear, ":") {
		parts := strings.SplitN(timeOrYear, ":", 2)
		hh, err1 := strconv.Atoi(parts[0])
		mm, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return time.Unix(0, 0).UTC()
		}
		year := time.Now().UTC().Year()
		return time.Date(year, m, d, hh, mm, 0, 0, time.UTC)
	}

	year, err := strconv.Atoi(timeOrYear)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}
