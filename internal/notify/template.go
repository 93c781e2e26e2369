package notify

import (
	"strconv"
	"strings"
)

// Vars are the values substituted into message templates.
type Vars struct {
	Admin    string
	Count    int
	Duration string
}

// Render replaces every {admin}, {count} and {duration} in tmpl. Other
// brace-delimited text is left untouched.
func Render(tmpl string, v Vars) string {
	return strings.NewReplacer(
		"{admin}", v.Admin,
		"{count}", strconv.Itoa(v.Count),
		"{duration}", v.Duration,
	).Replace(tmpl)
}
