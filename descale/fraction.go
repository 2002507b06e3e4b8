package descale

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/getfnative/errors"
)

const fractionChars = "0123456789./-"

// ParseFraction parses a decimal ("0.25") or a quotient ("1/3", "-1/2").
// Only digits, '.', '/' and '-' are accepted.
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.InvalidInput("fraction", "empty value")
	}
	for _, r := range s {
		if !strings.ContainsRune(fractionChars, r) {
			return 0, errors.InvalidInput("fraction", fmt.Sprintf("invalid character %q in %q", r, s))
		}
	}

	parts := strings.Split(s, "/")
	val, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, errors.InvalidInput("fraction", fmt.Sprintf("cannot parse %q", s)).WithCause(err)
	}
	for _, p := range parts[1:] {
		d, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, errors.InvalidInput("fraction", fmt.Sprintf("cannot parse %q", s)).WithCause(err)
		}
		if d == 0 {
			return 0, errors.InvalidInput("fraction", fmt.Sprintf("division by zero in %q", s))
		}
		val /= d
	}
	return val, nil
}

// Fraction is a float flag value that also accepts quotients.
type Fraction float64

// String implements pflag.Value.
func (f *Fraction) String() string {
	return strconv.FormatFloat(float64(*f), 'g', -1, 64)
}

// Set implements pflag.Value.
func (f *Fraction) Set(s string) error {
	v, err := ParseFraction(s)
	if err != nil {
		return err
	}
	*f = Fraction(v)
	return nil
}

// Type implements pflag.Value.
func (f *Fraction) Type() string { return "fraction" }
