package bank

import (
	"strings"

	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/numeric"
	"github.com/corebank/bankdef/util"
)

// Serialize renders b back into the bank text grammar using cfg's
// prefix, base, and widths. If the bank has only register 1, address
// lines are emitted directly with no register line; otherwise every
// register id is printed on its own line before its address lines.
// Output always uses "\n" line endings and never carries a BOM.
func Serialize(b *Bank, cfg config.Config) []byte {
	var out strings.Builder

	out.WriteString(cfg.Prefix)
	out.WriteString(numeric.Format(b.ID, cfg.Base, cfg.WidthBank))
	out.WriteByte('\t')
	out.WriteByte('(')
	out.WriteString(b.Title)
	out.WriteString("){\n")

	regKeys := util.SortedKeys(b.Regs)
	onlyReg1 := len(regKeys) == 1 && regKeys[0] == 1

	for _, reg := range regKeys {
		if !onlyReg1 {
			out.WriteString(numeric.Format(reg, cfg.Base, cfg.WidthReg))
			out.WriteByte('\n')
		}
		addrs := b.Regs[reg]
		for _, addr := range util.SortedKeys(addrs) {
			out.WriteByte('\t')
			out.WriteString(numeric.Format(addr, cfg.Base, cfg.WidthAddr))
			out.WriteByte('\t')
			out.Write(addrs[addr])
			out.WriteByte('\n')
		}
	}

	out.WriteString("}\n")
	return []byte(out.String())
}
