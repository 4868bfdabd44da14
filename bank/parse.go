package bank

import (
	"strings"

	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/numeric"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Parse decodes the bank text grammar (header + indented body) into a
// Bank, using cfg to know the expected prefix character and base.
//
// Leading UTF-8 BOM is stripped. The header may wrap onto following
// lines; its tokens are accumulated until the first '{' is found. The
// body's implicit starting register is 1; any later non-indented,
// non-blank line before the closing '}' changes the current register.
// The first '}' in the input ends the body.
func Parse(data []byte, cfg config.Config) (*Bank, error) {
	text, err := stripBOM(data)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, newErr(EmptyInput, "")
	}

	braceIdx := strings.IndexByte(text, '{')
	if braceIdx < 0 {
		return nil, newErr(MissingOpenBrace, "")
	}

	id, title, err := parseHeader(text[:braceIdx], cfg)
	if err != nil {
		return nil, err
	}

	body := text[braceIdx+1:]
	if closeIdx := strings.IndexByte(body, '}'); closeIdx >= 0 {
		body = body[:closeIdx]
	}

	b := New(id, title)
	if err := parseBody(b, body, cfg); err != nil {
		return nil, err
	}
	return b, nil
}

func stripBOM(data []byte) (string, error) {
	transformer := unicode.BOMOverride(transform.Nop)
	out, _, err := transform.Bytes(transformer, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseHeader(header string, cfg config.Config) (uint64, string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, "", newErr(NoHeader, "")
	}
	if header[0] != cfg.PrefixByte() {
		return 0, "", newErr(NoHeader, header[:1])
	}
	rest := header[1:]

	i := 0
	for i < len(rest) && isAlnum(rest[i]) {
		i++
	}
	idToken := rest[:i]
	id, err := numeric.Parse(idToken, cfg.Base)
	if err != nil {
		return 0, "", newErr(BadBankID, idToken)
	}
	rest = rest[i:]

	openIdx := strings.IndexByte(rest, '(')
	if openIdx < 0 {
		return 0, "", newErr(MalformedParens, header)
	}
	// Everything between the id and '(' must be whitespace (the header
	// may have wrapped across lines here).
	if strings.TrimSpace(rest[:openIdx]) != "" {
		return 0, "", newErr(MalformedParens, header)
	}

	closeIdx := strings.LastIndexByte(rest, ')')
	if closeIdx < 0 || closeIdx < openIdx {
		return 0, "", newErr(MalformedParens, header)
	}

	title := rest[openIdx+1 : closeIdx]
	return id, title, nil
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func parseBody(b *Bank, body string, cfg config.Config) error {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	// The implicit register 1 only gets an entry once an address line
	// lands in it, so a body that opens with an explicit register line
	// round-trips without a spurious empty register 1.
	currentReg := uint64(1)

	for _, line := range lines {
		if line == "" {
			continue
		}
		if isIndent(line[0]) {
			if strings.TrimSpace(line) == "" {
				continue
			}
			addr, value, err := parseAddressLine(line, cfg.Base)
			if err != nil {
				return err
			}
			if _, ok := b.Regs[currentReg]; !ok {
				b.Regs[currentReg] = map[uint64][]byte{}
			}
			b.Regs[currentReg][addr] = value
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		regToken := strings.TrimRight(line, " \t")
		reg, err := numeric.Parse(regToken, cfg.Base)
		if err != nil {
			return newErr(BadRegisterID, regToken)
		}
		currentReg = reg
		if _, ok := b.Regs[currentReg]; !ok {
			b.Regs[currentReg] = map[uint64][]byte{}
		}
	}
	return nil
}

func isIndent(c byte) bool {
	return c == ' ' || c == '\t'
}

func parseAddressLine(line string, base int) (uint64, []byte, error) {
	i := 0
	for i < len(line) && isIndent(line[i]) {
		i++
	}
	rest := line[i:]

	j := 0
	for j < len(rest) && isAlnum(rest[j]) {
		j++
	}
	addrToken := rest[:j]

	var value string
	if j < len(rest) && isIndent(rest[j]) {
		value = rest[j+1:]
	} else {
		value = rest[j:]
	}

	addr, err := numeric.Parse(addrToken, base)
	if err != nil {
		return 0, nil, newErr(BadAddressID, addrToken)
	}
	return addr, []byte(value), nil
}
