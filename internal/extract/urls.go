package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// trailing punctuation that sentence text tends to glue onto URLs
const urlTrailers = `.,;:!?>"'`

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

// ExtractURLs returns the whitespace-delimited tokens of text that start
// with "http", trailing punctuation trimmed, duplicates removed with the
// first occurrence kept.
func ExtractURLs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range strings.Fields(text) {
		if !strings.HasPrefix(tok, "http") {
			continue
		}
		tok = trimURL(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// trimURL strips trailing punctuation. A closing bracket is stripped only
// when the token holds more closers than openers of that kind, so
// https://en.wikipedia.org/wiki/Foo_(bar) survives intact.
func trimURL(tok string) string {
	for tok != "" {
		last := tok[len(tok)-1]
		if strings.IndexByte(urlTrailers, last) >= 0 {
			tok = tok[:len(tok)-1]
			continue
		}
		open, ok := closers[last]
		if ok && strings.Count(tok, string(last)) > strings.Count(tok, string(open)) {
			tok = tok[:len(tok)-1]
			continue
		}
		break
	}
	return tok
}

// Kind classifies a URL.
type Kind int

const (
	KindWeb Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "web"
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func videoHost(host string) (bool, bool) {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		return true, false
	case "youtu.be":
		return true, true
	}
	return false, false
}

// Classify decides whether a URL points at a single hosted video. Other
// pages on a video host (playlists, channels, search) are web sources.
func Classify(raw string) Kind {
	if _, ok := VideoID(raw); ok {
		return KindVideo
	}
	return KindWeb
}

// VideoID extracts the 11 character video id from the watch, short-link,
// shorts, embed and live URL forms. ok is false for malformed URLs.
func VideoID(raw string) (id string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	isVideo, short := videoHost(u.Host)
	if !isVideo {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case short:
		id = segments[0]
	case len(segments) >= 1 && segments[0] == "watch":
		id = u.Query().Get("v")
	case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "embed" || segments[0] == "live" || segments[0] == "v"):
		id = segments[1]
	}

	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}
