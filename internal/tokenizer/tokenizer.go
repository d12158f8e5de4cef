// Package tokenizer splits a passage into lowercase ASCII alphanumeric
// tokens. It performs no stemming and no stop-word removal.
package tokenizer

// isWordByte reports whether b should extend the current token run. ASCII
// alphanumerics extend it directly; any byte with the high bit set also
// extends it so that a multi-byte UTF-8 sequence is captured whole rather
// than split at its continuation bytes, which lets Tokenize reject the
// whole token instead of silently keeping its ASCII-looking prefix.
func isWordByte(b byte) bool {
	return isASCIIAlnum(b) || b >= 0x80
}

func isASCIIAlnum(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func toLower(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// Tokenize breaks passage into lowercase ASCII alphanumeric tokens. A token
// is a maximal run of word bytes; any run containing a byte greater than
// 127 is dropped whole rather than truncated, and empty tokens are never
// emitted.
func Tokenize(passage string) []string {
	tokens := make([]string, 0, len(passage)/6+1)
	start := -1
	ascii := true
	for i := 0; i < len(passage); i++ {
		b := passage[i]
		if isWordByte(b) {
			if start == -1 {
				start = i
				ascii = true
			}
			if b >= 0x80 {
				ascii = false
			}
			continue
		}
		if start != -1 {
			if ascii {
				tokens = append(tokens, lowerRun(passage[start:i]))
			}
			start = -1
		}
	}
	if start != -1 && ascii {
		tokens = append(tokens, lowerRun(passage[start:]))
	}
	return tokens
}

func lowerRun(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = toLower(s[i])
	}
	return string(out)
}
