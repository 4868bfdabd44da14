package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/corebank/bankdef/cache"
	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/export"
	"github.com/corebank/bankdef/kernel"
	"github.com/corebank/bankdef/numeric"
	"github.com/corebank/bankdef/resolver"
	"github.com/corebank/bankdef/util"
	"github.com/corebank/bankdef/workspace"
)

func loadWorkspace() (config.Config, *workspace.Workspace, error) {
	cfg, err := config.Load(filepath.Join(global.WorkDir, "files", "config.json"))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, workspace.New(global.WorkDir, cfg), nil
}

// newResolver builds a Resolver backed by the on-disk resolution cache
// at files/out/cache.db, unless --no-cache was given. The returned
// close func flushes and releases the cache handle and must be called
// before the command returns.
func newResolver(ws *workspace.Workspace, cfg config.Config) (*resolver.Resolver, func(), error) {
	r := resolver.New(ws, cfg)
	if global.NoCache {
		return r, func() {}, nil
	}

	cacheDir := filepath.Join(ws.FilesDir(), "out")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("prepare cache dir: %w", err)
	}

	c, err := cache.Open(filepath.Join(cacheDir, "cache.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	r.Cache = c

	return r, func() { c.Close() }, nil
}

type openCmd struct {
	Args struct {
		Bank string `positional-arg-name:"BANK"`
	} `positional-args:"yes" required:"yes"`
}

func (c *openCmd) Execute(args []string) error {
	cfg, ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	id, err := numeric.Parse(c.Args.Bank, cfg.Base)
	if err != nil {
		return fmt.Errorf("bad bank id %q: %w", c.Args.Bank, err)
	}

	b, err := ws.Open(id)
	if err != nil {
		return err
	}
	fmt.Printf("opened bank %s (%q)\n", c.Args.Bank, b.Title)
	return nil
}

type setCmd struct {
	Args struct {
		Bank  string `positional-arg-name:"BANK"`
		Reg   string `positional-arg-name:"REG"`
		Addr  string `positional-arg-name:"ADDR"`
		Value string `positional-arg-name:"VALUE"`
	} `positional-args:"yes" required:"yes"`
}

func (c *setCmd) Execute(args []string) error {
	cfg, ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	id, reg, addr, err := parseCoord(cfg, c.Args.Bank, c.Args.Reg, c.Args.Addr)
	if err != nil {
		return err
	}

	b, err := ws.Open(id)
	if err != nil {
		return err
	}
	b.Set(reg, addr, []byte(c.Args.Value))
	return ws.Write(id)
}

type resolveCmd struct {
	Args struct {
		Bank string `positional-arg-name:"BANK"`
		Reg  string `positional-arg-name:"REG"`
		Addr string `positional-arg-name:"ADDR"`
	} `positional-args:"yes" required:"yes"`
}

func (c *resolveCmd) Execute(args []string) error {
	cfg, ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	id, reg, addr, err := parseCoord(cfg, c.Args.Bank, c.Args.Reg, c.Args.Addr)
	if err != nil {
		return err
	}

	b, err := ws.EnsureLoaded(id)
	if err != nil {
		return err
	}
	raw, ok := b.Get(reg, addr)
	if !ok {
		return fmt.Errorf("no value at (%s,%s,%s)", c.Args.Bank, c.Args.Reg, c.Args.Addr)
	}

	r, closeCache, err := newResolver(ws, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	resolved, err := r.Resolve(context.Background(), id, string(raw), nil)
	if err != nil {
		return err
	}
	fmt.Println(resolved)
	return nil
}

type exportCmd struct {
	Format string `long:"format" choice:"text" choice:"json" default:"text" description:"export format"`
	Args   struct {
		Bank string `positional-arg-name:"BANK"`
	} `positional-args:"yes" required:"yes"`
}

func (c *exportCmd) Execute(args []string) error {
	cfg, ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	id, err := numeric.Parse(c.Args.Bank, cfg.Base)
	if err != nil {
		return fmt.Errorf("bad bank id %q: %w", c.Args.Bank, err)
	}

	b, err := ws.EnsureLoaded(id)
	if err != nil {
		return err
	}
	util.DebugDump("bank", b)

	r, closeCache, err := newResolver(ws, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	ctx := context.Background()

	var out []byte
	switch c.Format {
	case "json":
		out, err = export.JSON(ctx, r, b, cfg)
	default:
		out, err = export.ResolvedText(ctx, r, b, cfg)
	}
	if err != nil {
		return err
	}

	os.Stdout.Write(out)
	if c.Format == "json" {
		fmt.Println()
	}
	return nil
}

type runCmd struct {
	Stdin string `long:"stdin" description:"inline JSON text, or a path to a file holding it"`
	Args  struct {
		Plugin string `positional-arg-name:"PLUGIN"`
		Bank   string `positional-arg-name:"BANK"`
		Reg    string `positional-arg-name:"REG"`
		Addr   string `positional-arg-name:"ADDR"`
	} `positional-args:"yes" required:"yes"`
}

func (c *runCmd) Execute(args []string) error {
	cfg, ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	id, reg, addr, err := parseCoord(cfg, c.Args.Bank, c.Args.Reg, c.Args.Addr)
	if err != nil {
		return err
	}

	r, closeCache, err := newResolver(ws, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	k := kernel.New(ws, r, cfg, filepath.Join(global.WorkDir, "plugins"))

	result, err := k.Run(context.Background(), c.Args.Plugin, id, reg, addr, c.Stdin)
	if err != nil {
		return err
	}
	util.DebugDump("run result", result)

	printRunReport(result)
	return nil
}

func parseCoord(cfg config.Config, bankTok, regTok, addrTok string) (uint64, uint64, uint64, error) {
	id, err := numeric.Parse(bankTok, cfg.Base)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad bank id %q: %w", bankTok, err)
	}
	reg, err := numeric.Parse(regTok, cfg.Base)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad register id %q: %w", regTok, err)
	}
	addr, err := numeric.Parse(addrTok, cfg.Base)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad address id %q: %w", addrTok, err)
	}
	return id, reg, addr, nil
}

// printRunReport prints the plugin's exit code and run directory,
// coloring the exit code when stdout is a terminal. The kernel itself
// never touches color or TTY state; that is this glue's job alone.
func printRunReport(result *kernel.RunResult) {
	out := colorable.NewColorableStdout()
	green, red, reset := "", "", ""
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		green, red, reset = "\x1b[32m", "\x1b[31m", "\x1b[0m"
	}

	color := green
	if result.ExitCode != 0 {
		color = red
	}
	fmt.Fprintf(out, "%sexit=%d%s run_dir=%s\n", color, result.ExitCode, reset, result.RunDir)
}
