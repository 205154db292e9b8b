package transcript

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidQuarter is returned for quarter strings not shaped like "Q1 2024".
var ErrInvalidQuarter = errors.New(`quarter must look like "Q1 2024"`)

var quarterPattern = regexp.MustCompile(`^[Qq]([1-4])\s+(\d{4})$`)

// Quarter is a fiscal quarter.
type Quarter struct {
	Number int
	Year   int
}

// ParseQuarter parses "Q3 2024" (case-insensitive, any inner whitespace).
func ParseQuarter(s string) (Quarter, error) {
	m := quarterPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Quarter{}, fmt.Errorf("%w: got %q", ErrInvalidQuarter, s)
	}
	n, _ := strconv.Atoi(m[1])
	y, _ := strconv.Atoi(m[2])
	return Quarter{Number: n, Year: y}, nil
}

// String renders the canonical "Q1 2024" form.
func (q Quarter) String() string {
	return fmt.Sprintf("Q%d %d", q.Number, q.Year)
}
