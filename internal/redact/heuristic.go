package redact

import (
	"strings"
	"unicode/utf8"
)

const addressToken = "address:"

// AddressAfterColon redacts everything after the first colon on lines that
// carry an "address:" label. It catches address lines the model does not tag
// as a location and runs regardless of what the model returned.
func AddressAfterColon(text string, cats CategorySet) []Finding {
	if !cats.Has(CategoryAddress) {
		return nil
	}
	if !strings.Contains(strings.ToLower(text), addressToken) {
		return nil
	}
	colon := strings.IndexByte(text, ':')
	if colon < 0 {
		return nil
	}
	start := runeOffset(text, colon) + 1
	end := utf8.RuneCountInString(text)
	if start >= end {
		return nil
	}
	return []Finding{{Start: start, End: end, Category: CategoryAddress}}
}
