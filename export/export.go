// Package export renders a bank's resolved view: either back into the
// bank text grammar (with every cell replaced by its resolved value)
// or as a structured JSON document.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/corebank/bankdef/bank"
	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/numeric"
	"github.com/corebank/bankdef/resolver"
	"github.com/corebank/bankdef/util"
)

// ResolvedText re-serializes b using the bank text grammar, substituting
// every cell's resolver output for its raw value. Unlike Serialize, the
// layout always prints register lines explicitly (even for a
// single-register bank) so the resolved export preserves register
// ordering information on its own.
func ResolvedText(ctx context.Context, r *resolver.Resolver, b *bank.Bank, cfg config.Config) ([]byte, error) {
	var out strings.Builder
	fmt.Fprintf(&out, "%c%s\t(%s){\n", cfg.PrefixByte(), numeric.Format(b.ID, cfg.Base, cfg.WidthBank), b.Title)

	for _, reg := range util.SortedKeys(b.Regs) {
		fmt.Fprintf(&out, "%s\n", numeric.Format(reg, cfg.Base, cfg.WidthReg))
		addrs := b.Regs[reg]
		for _, addr := range util.SortedKeys(addrs) {
			resolved, err := r.Resolve(ctx, b.ID, string(addrs[addr]), nil)
			if err != nil {
				return nil, fmt.Errorf("export: resolve (%d,%d,%d): %w", b.ID, reg, addr, err)
			}
			fmt.Fprintf(&out, "\t%s\t%s\n", numeric.Format(addr, cfg.Base, cfg.WidthAddr), resolved)
		}
	}

	out.WriteString("}\n")
	return []byte(out.String()), nil
}

// JSON emits the bank's resolved view as a single JSON document:
//
//	{"bank": "<prefix><padded-bank>", "title": <title>,
//	 "registers": [{"id": "<padded-reg>",
//	                "addresses": [{"id": "<padded-addr>", "value": <resolved>}, ...]}, ...]}
//
// String escaping is the grammar's own rule, not encoding/json's:
// backslash and double-quote are backslashed, newline becomes \n, and
// every other byte passes through unchanged.
func JSON(ctx context.Context, r *resolver.Resolver, b *bank.Bank, cfg config.Config) ([]byte, error) {
	var out strings.Builder
	out.WriteString("{")
	fmt.Fprintf(&out, `"bank": "%c%s", "title": "%s", "registers": [`,
		cfg.PrefixByte(), numeric.Format(b.ID, cfg.Base, cfg.WidthBank), escapeJSONString(b.Title))

	for i, reg := range util.SortedKeys(b.Regs) {
		if i > 0 {
			out.WriteString(", ")
		}
		fmt.Fprintf(&out, `{"id": "%s", "addresses": [`, numeric.Format(reg, cfg.Base, cfg.WidthReg))

		addrs := b.Regs[reg]
		for j, addr := range util.SortedKeys(addrs) {
			if j > 0 {
				out.WriteString(", ")
			}
			resolved, err := r.Resolve(ctx, b.ID, string(addrs[addr]), nil)
			if err != nil {
				return nil, fmt.Errorf("export: resolve (%d,%d,%d): %w", b.ID, reg, addr, err)
			}
			fmt.Fprintf(&out, `{"id": "%s", "value": "%s"}`,
				numeric.Format(addr, cfg.Base, cfg.WidthAddr), escapeJSONString(resolved))
		}
		out.WriteString("]}")
	}

	out.WriteString("]}")
	return []byte(out.String()), nil
}

// escapeJSONString applies the grammar's escaping rule: backslash and
// double-quote are backslashed, newline becomes the two-byte sequence
// \n, and every other byte (including other control bytes) is passed
// through unchanged.
func escapeJSONString(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '"':
			out.WriteByte('\\')
			out.WriteByte(c)
		case '\n':
			out.WriteString(`\n`)
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}
