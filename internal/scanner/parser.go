package scanner

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filename parsing for movie imports.
//
// Parsing is pure: a filename goes in, a structured {title, year, fileName}
// comes out, or nothing when the extension is not a recognized video format.
// The cleaning pass strips the usual release junk (codec, resolution, source
// and release-group tags) as whole words before separators are normalized.

// ParsedFile is the structured result of parsing one filename.
type ParsedFile struct {
	Title    string `json:"title"`
	Year     string `json:"year"`
	FileName string `json:"file_name"`
}

// videoExtensions is the fixed allow-list of importable containers.
var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".mpeg": true, ".mpg": true, ".m4v": true,
	".3gp": true, ".ts": true, ".m2ts": true, ".vob": true, ".divx": true,
}

// noiseTokens is the vocabulary removed from filenames, grouped by category.
var noiseTokens = flatten(
	// Video codecs
	[]string{"x264", "x265", "h264", "h265", "hevc", "avc", "divx", "xvid", "av1", "10bit", "8bit"},
	// Audio codecs & channels
	[]string{"aac", "ac3", "dts", "truehd", "atmos", "flac", "mp3", "opus", "eac3", "dd5\\.1", "5\\.1", "7\\.1"},
	// Resolution
	[]string{"480p", "576p", "720p", "1080p", "1080i", "2160p", "4k", "uhd", "hdr", "sdr", "hd"},
	// Source
	[]string{"bluray", "blu-ray", "bdrip", "brrip", "bdremux", "remux", "hdrip",
		"dvdrip", "dvdscr", "dvd", "webrip", "web-dl", "webdl", "web",
		"hdtv", "pdtv", "tvrip", "cam", "telesync", "telecine", "screener"},
	// Release type / misc
	[]string{"proper", "repack", "rerip", "internal", "limited", "unrated",
		"extended", "remastered", "multi", "dubbed", "subbed", "subs", "retail",
		"yify", "yts", "rarbg", "ettv", "eztv", "galaxyrg"},
)

// One alternation keeps removal whole-word and case-insensitive in a single
// pass over the name.
var noiseRx = regexp.MustCompile(`(?i)\b(?:` + strings.Join(noiseTokens, "|") + `)\b`)

var (
	separatorRx    = regexp.MustCompile(`[._\-\[\]\(\)\{\}+,;]`)
	whitespaceRx   = regexp.MustCompile(`\s+`)
	trailingYearRx = regexp.MustCompile(`\s(\d{4})$`)
	loneYearRx     = regexp.MustCompile(`^(\d{4})$`)
)

func flatten(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Parse extracts a title and optional release year from a filename.
// Returns false when the extension is missing or not a known video format.
func Parse(filename string) (ParsedFile, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !videoExtensions[ext] {
		return ParsedFile{}, false
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	name := noiseRx.ReplaceAllString(base, " ")
	name = separatorRx.ReplaceAllString(name, " ")
	name = whitespaceRx.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	result := ParsedFile{FileName: filename, Title: name}
	if m := trailingYearRx.FindStringSubmatch(name); len(m) == 2 {
		result.Year = m[1]
		result.Title = strings.TrimSpace(strings.TrimSuffix(name, m[0]))
	} else if m := loneYearRx.FindStringSubmatch(name); len(m) == 2 {
		// The whole remaining name is a 4-digit token; treat it as the
		// year and leave the title empty for the caller to judge.
		result.Year = m[1]
		result.Title = ""
	}
	return result, true
}

// ParseBatch parses a list of filenames, drops non-video entries, and
// returns the rest ordered by title (case-insensitive, locale-aware).
func ParseBatch(filenames []string) []ParsedFile {
	var parsed []ParsedFile
	for _, name := range filenames {
		if p, ok := Parse(name); ok {
			parsed = append(parsed, p)
		}
	}
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(parsed, func(i, j int) bool {
		return c.CompareString(parsed[i].Title, parsed[j].Title) < 0
	})
	return parsed
}
