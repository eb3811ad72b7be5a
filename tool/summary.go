package tool

import (
	"encoding/json"
	"fmt"
)

// MaxSummaryLen bounds the result summary stored with tool audit events.
const MaxSummaryLen = 500

// SummarizeResult JSON-encodes v and truncates it to MaxSummaryLen
// characters followed by "..." when longer. Shorter or equal strings are
// returned unchanged.
func SummarizeResult(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	default:
		b, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprint(v)
		} else {
			s = string(b)
		}
	}
	r := []rune(s)
	if len(r) <= MaxSummaryLen {
		return s
	}
	return string(r[:MaxSummaryLen]) + "..."
}
