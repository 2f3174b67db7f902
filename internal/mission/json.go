package mission

import "strings"

// extractJSONBlock returns the body of the first ``` fenced block, with or
// without a "json" language tag. Empty when there is no closed fence.
func extractJSONBlock(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return ""
	}
	body := s[start+3:]
	// drop the info string ("json", "JSON", ...) up to the first newline
	if nl := strings.Index(body, "\n"); nl != -1 {
		info := strings.TrimSpace(body[:nl])
		if info == "" || !strings.ContainsAny(info, "{[") {
			body = body[nl+1:]
		}
	}
	end := strings.Index(body, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(body[:end])
}

// extractJSONObject returns the first balanced {...} object in s. Braces
// inside JSON strings are ignored.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// cleanJSONResponse reduces a model reply to the JSON object it carries.
func cleanJSONResponse(resp string) string {
	resp = strings.TrimSpace(resp)
	if block := extractJSONBlock(resp); block != "" {
		resp = block
	}
	if obj := extractJSONObject(resp); obj != "" {
		return obj
	}
	return resp
}
