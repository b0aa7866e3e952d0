package console

// Charset is the set of bytes a read accepts. Anything else is dropped
// silently: not buffered, not echoed.
type Charset uint8

const (
	Alpha          Charset = iota + 1 // space, a-z, A-Z
	NumericInteger                    // 0-9, '-'
	NumericDecimal                    // 0-9, '-', '.'
	AlphaNumeric                      // space, a-z, A-Z, 0-9, '.', '-', ':'
)

// Accepts reports whether b belongs to c.
func (c Charset) Accepts(b byte) bool {
	letter := b == ' ' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
	digit := b >= '0' && b <= '9'
	switch c {
	case Alpha:
		return letter
	case NumericInteger:
		return digit || b == '-'
	case NumericDecimal:
		return digit || b == '-' || b == '.'
	case AlphaNumeric:
		return letter || digit || b == '.' || b == '-' || b == ':'
	}
	return false
}

func (c Charset) String() string {
	switch c {
	case Alpha:
		return "alpha"
	case NumericInteger:
		return "integer"
	case NumericDecimal:
		return "decimal"
	case AlphaNumeric:
		return "alphanumeric"
	}
	return "none"
}
