package skeleton

import (
	"fmt"
	"strconv"
	"strings"
)

// constantToken renders a ConstantValue attribute as a Java literal.
func constantToken(desc string, v any) token {
	switch x := v.(type) {
	case string:
		return token{stringToken, quote(x, '"')}
	case int32:
		switch desc {
		case "Z":
			return keyword(strconv.FormatBool(x != 0))
		case "C":
			return token{stringToken, quote(string(rune(x)), '\'')}
		}
		return token{numberToken, strconv.FormatInt(int64(x), 10)}
	case int64:
		return token{numberToken, strconv.FormatInt(x, 10) + "L"}
	case float32:
		return token{numberToken, formatFloat(float64(x), 32, "F")}
	case float64:
		return token{numberToken, formatFloat(x, 64, "D")}
	}
	return text(fmt.Sprint(v))
}

func formatFloat(f float64, bits int, suffix string) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	switch s {
	case "NaN":
		return "0.0" + suffix + " / 0.0" + suffix
	case "+Inf":
		return "1.0" + suffix + " / 0.0" + suffix
	case "-Inf":
		return "-1.0" + suffix + " / 0.0" + suffix
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s + suffix
}

// quote writes s as a Java literal delimited by q. Non-ASCII characters are
// left as-is; the printer escapes them when asked to.
func quote(s string, q rune) string {
	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch r {
		case q, '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteRune(q)
	return b.String()
}
