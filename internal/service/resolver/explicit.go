package resolver

import (
	"regexp"
	"strings"
)

var (
	parenCode = regexp.MustCompile(`(?i)\(\s*([a-z0-9]{2,5})\s*\)`)
	labelCode = regexp.MustCompile(`(?i)\b(?:set|code)\b\s*([:=])?\s*([a-z0-9]{2,5})\b`)
)

// labelFiller are words that follow "set"/"code" in ordinary prose ("a set of
// elves", "set in space"). They are only skipped when no ":" or "=" separator
// is present.
var labelFiller = map[string]struct{}{
	"of": {}, "in": {}, "to": {}, "for": {}, "the": {}, "and": {},
	"from": {}, "with": {}, "that": {}, "is": {}, "are": {}, "or": {},
	"a": {}, "an": {}, "on": {}, "by": {}, "as": {}, "at": {}, "it": {},
	"this": {}, "its": {}, "was": {}, "has": {}, "like": {}, "which": {},
	"your": {}, "my": {}, "our": {}, "you": {}, "his": {}, "her": {},
	"their": {}, "them": {}, "they": {}, "up": {}, "out": {}, "off": {},
	"back": {}, "into": {}, "onto": {}, "each": {}, "all": {}, "any": {},
	"one": {}, "two": {}, "no": {}, "not": {}, "aside": {}, "can": {},
	"will": {}, "so": {}, "but": {}, "if": {}, "then": {},
}

// ExtractExplicitCode finds a set code the user spelled out, either in
// parentheses ("(CMM)") or after a "set"/"code" label ("set: cmm",
// "code=mh3"). The code is returned lower-cased.
func ExtractExplicitCode(query string) (string, bool) {
	if m := parenCode.FindStringSubmatch(query); m != nil {
		return strings.ToLower(m[1]), true
	}

	for _, m := range labelCode.FindAllStringSubmatch(query, -1) {
		code := strings.ToLower(m[2])
		if m[1] == "" {
			if _, filler := labelFiller[code]; filler {
				continue
			}
		}
		return code, true
	}
	return "", false
}
