package runner

type ansiState int

const (
	ansiText ansiState = iota
	ansiEsc
	ansiCSI
	ansiString
	ansiStringEsc
)

// StripANSI removes escape sequences and control bytes from captured
// terminal output so summary matching sees plain text. Newlines, tabs,
// and carriage returns survive; everything else below 0x20 is dropped.
func StripANSI(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	out := make([]byte, 0, len(data))
	state := ansiText
	for _, b := range data {
		switch state {
		case ansiText:
			switch {
			case b == 0x1b:
				state = ansiEsc
			case b == 0x9b:
				state = ansiCSI
			case b == 0x90 || b == 0x9d || b == 0x9e || b == 0x9f:
				state = ansiString
			case b == '\n' || b == '\r' || b == '\t':
				out = append(out, b)
			case b < 0x20 || b == 0x7f || (b >= 0x80 && b <= 0x9f):
			default:
				out = append(out, b)
			}
		case ansiEsc:
			switch b {
			case '[':
				state = ansiCSI
			case ']', 'P', '^', '_':
				state = ansiString
			default:
				state = ansiText
			}
		case ansiCSI:
			// parameter and intermediate bytes run until a final byte
			if b >= 0x40 && b <= 0x7e {
				state = ansiText
			}
		case ansiString:
			if b == 0x07 {
				state = ansiText
			} else if b == 0x1b {
				state = ansiStringEsc
			}
		case ansiStringEsc:
			if b == '\\' {
				state = ansiText
			} else {
				state = ansiString
			}
		}
	}
	return out
}

// StripANSIString is StripANSI for string callers.
func StripANSIString(s string) string {
	return string(StripANSI([]byte(s)))
}
