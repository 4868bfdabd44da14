// Command bankctl is a thin, non-interactive surface over the bank
// library packages: open/create a bank, set a cell, resolve a cell,
// export a bank, and run a plugin against a cell. It has no prompts,
// no pager, and no shell completion — those are the interactive
// front end this binary deliberately is not.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/corebank/bankdef/util"
)

type globalOptions struct {
	WorkDir string `short:"C" long:"workdir" description:"workspace root directory" default:"."`
	NoCache bool   `long:"no-cache" description:"disable the on-disk resolution cache"`
}

var global globalOptions

func main() {
	util.InitSlog()

	parser := flags.NewParser(&global, flags.Default)
	parser.AddCommand("open", "load or create a bank", "", &openCmd{})
	parser.AddCommand("set", "set a cell value", "", &setCmd{})
	parser.AddCommand("resolve", "resolve a cell value", "", &resolveCmd{})
	parser.AddCommand("export", "export a bank as resolved text or JSON", "", &exportCmd{})
	parser.AddCommand("run", "run a plugin against a resolved cell", "", &runCmd{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
