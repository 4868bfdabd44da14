// Package resolver expands the reference tokens embedded in cell
// values: a recursive, cycle-safe, base-aware pass over a string that
// turns bank/register/address coordinates and @file includes into
// their resolved text.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/corebank/bankdef/cache"
	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/numeric"
	"github.com/corebank/bankdef/workspace"
)

var (
	fileIncludeRe  = regexp.MustCompile(`@file\(([^()]*)\)`)
	sameBankRe     = regexp.MustCompile(`r([0-9A-Za-z]+)\.([0-9A-Za-z]+)`)
	numericTriadRe = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+`)
)

// Resolver expands references against a workspace of banks. Cache is
// optional: a nil Cache simply means every resolution is recomputed.
type Resolver struct {
	WS    *workspace.Workspace
	Cfg   config.Config
	Cache *cache.Cache
}

// New returns a Resolver bound to ws, using cfg for base and prefix,
// with no resolution cache. Set the Cache field afterward to enable
// one.
func New(ws *workspace.Workspace, cfg config.Config) *Resolver {
	return &Resolver{WS: ws, Cfg: cfg}
}

// Resolve expands every reference in s. currentBank is the bank this
// string's owning cell belongs to, used by the same-bank shorthand.
// visited holds the canonical keys already on this expansion's
// recursion path; pass nil at the top level.
func (r *Resolver) Resolve(ctx context.Context, currentBank uint64, s string, visited map[string]struct{}) (string, error) {
	s, err := r.passFileInclude(s)
	if err != nil {
		return "", err
	}

	s, err = r.passSameBank(ctx, currentBank, s, visited)
	if err != nil {
		return "", err
	}

	s, err = r.passPrefixedTriad(ctx, currentBank, s, visited)
	if err != nil {
		return "", err
	}

	s, err = r.passTwoPartPrefixed(ctx, currentBank, s, visited)
	if err != nil {
		return "", err
	}

	s, err = r.passNumericTriad(ctx, currentBank, s, visited)
	if err != nil {
		return "", err
	}

	return s, nil
}

// passFileInclude expands @file(NAME) tokens. The included bytes are
// never themselves resolved.
func (r *Resolver) passFileInclude(s string) (string, error) {
	matches := fileIncludeRe.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		name := s[m[2]:m[3]]

		data, err := os.ReadFile(filepath.Join(r.WS.FilesDir(), name))
		switch {
		case err == nil:
			sb.Write(data)
		case os.IsNotExist(err):
			fmt.Fprintf(&sb, "[Missing file: %s]", name)
		default:
			fmt.Fprintf(&sb, "[Cannot open file: %s]", name)
		}
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

// passSameBank expands r<REG>.<ADDR> against currentBank.
func (r *Resolver) passSameBank(ctx context.Context, currentBank uint64, s string, visited map[string]struct{}) (string, error) {
	matches := sameBankRe.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		token := s[m[0]:m[1]]
		regTok := s[m[2]:m[3]]
		addrTok := s[m[4]:m[5]]
		canonicalKey := fmt.Sprintf("%d.%s.%s", currentBank, regTok, addrTok)

		sb.WriteString(s[last:m[0]])
		repl, err := r.expandRef(ctx, currentBank, "", regTok, addrTok, token, r.Cfg.Base, canonicalKey, visited)
		if err != nil {
			return "", err
		}
		sb.WriteString(repl)
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

// passPrefixedTriad expands <prefix><BANK>.<REG>.<ADDR>.
func (r *Resolver) passPrefixedTriad(ctx context.Context, currentBank uint64, s string, visited map[string]struct{}) (string, error) {
	re := regexp.MustCompile(regexp.QuoteMeta(r.Cfg.Prefix) + `([0-9A-Za-z]+)\.([0-9A-Za-z]+)\.([0-9A-Za-z]+)`)
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		token := s[m[0]:m[1]]
		bankTok := s[m[2]:m[3]]
		regTok := s[m[4]:m[5]]
		addrTok := s[m[6]:m[7]]
		canonicalKey := fmt.Sprintf("%s%s.%s.%s", r.Cfg.Prefix, bankTok, regTok, addrTok)

		sb.WriteString(s[last:m[0]])
		repl, err := r.expandRef(ctx, currentBank, bankTok, regTok, addrTok, token, r.Cfg.Base, canonicalKey, visited)
		if err != nil {
			return "", err
		}
		sb.WriteString(repl)
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

// passTwoPartPrefixed expands <letter><BANK>.<ADDR>, honoring the
// "never shadows the three-part form" rule: a match immediately
// followed by another '.' is left untouched (Go's RE2 engine has no
// lookahead, so this is enforced by inspecting the byte after the
// match instead of baking it into the pattern).
func (r *Resolver) passTwoPartPrefixed(ctx context.Context, currentBank uint64, s string, visited map[string]struct{}) (string, error) {
	re := regexp.MustCompile(regexp.QuoteMeta(r.Cfg.Prefix) + `([0-9A-Za-z]+)\.([0-9A-Za-z]+)`)
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		if m[1] < len(s) && s[m[1]] == '.' {
			continue
		}

		token := s[m[0]:m[1]]
		bankTok := s[m[2]:m[3]]
		addrTok := s[m[4]:m[5]]
		canonicalKey := fmt.Sprintf("%s%s.%s", r.Cfg.Prefix, bankTok, addrTok)

		sb.WriteString(s[last:m[0]])
		repl, err := r.expandRef(ctx, currentBank, bankTok, "1", addrTok, token, r.Cfg.Base, canonicalKey, visited)
		if err != nil {
			return "", err
		}
		sb.WriteString(repl)
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

// passNumericTriad expands <BANK>.<REG>.<ADDR>, decimal only,
// rejecting matches preceded by an alphanumeric byte so a run like
// "x00001.01.0001" is not partially re-matched as "00001.01.0001".
func (r *Resolver) passNumericTriad(ctx context.Context, currentBank uint64, s string, visited map[string]struct{}) (string, error) {
	matches := numericTriadRe.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] > 0 && isAlnum(s[m[0]-1]) {
			continue
		}

		token := s[m[0]:m[1]]
		parts := strings.SplitN(token, ".", 3)
		bankTok, regTok, addrTok := parts[0], parts[1], parts[2]
		canonicalKey := fmt.Sprintf("%s.%s.%s", bankTok, regTok, addrTok)

		sb.WriteString(s[last:m[0]])
		repl, err := r.expandRef(ctx, currentBank, bankTok, regTok, addrTok, token, 10, canonicalKey, visited)
		if err != nil {
			return "", err
		}
		sb.WriteString(repl)
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

func isAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// expandRef resolves a single coordinate match: a bank token of ""
// means "use currentBank" (the same-bank shorthand); otherwise bankTok
// is parsed in base and becomes the bank to both look up in and
// recurse with. Lookup failures and bad digits become sentinel
// strings, never Go errors; only genuine I/O failure while loading a
// bank propagates.
func (r *Resolver) expandRef(ctx context.Context, currentBank uint64, bankTok, regTok, addrTok, originalToken string, base int, canonicalKey string, visited map[string]struct{}) (string, error) {
	if _, seen := visited[canonicalKey]; seen {
		return fmt.Sprintf("[Circular Ref: %s]", originalToken), nil
	}

	bankID := currentBank
	if bankTok != "" {
		parsed, err := numeric.Parse(bankTok, base)
		if err != nil {
			return fmt.Sprintf("[BadRef %s]", originalToken), nil
		}
		bankID = parsed
	}

	reg, regErr := numeric.Parse(regTok, base)
	addr, addrErr := numeric.Parse(addrTok, base)
	if regErr != nil || addrErr != nil {
		return fmt.Sprintf("[BadRef %s]", originalToken), nil
	}

	b, err := r.WS.EnsureLoaded(bankID)
	if err != nil {
		var nf *workspace.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Sprintf("[Missing %s]", originalToken), nil
		}
		return "", err
	}

	raw, ok := b.Get(reg, addr)
	if !ok {
		return fmt.Sprintf("[Missing %s]", originalToken), nil
	}

	// Caching is only safe when this reference has no ancestors of its
	// own: the resolved text of a cell can depend on which coordinates
	// are already on the calling path (that is how cycle detection
	// produces different sentinel text for the same content reached
	// from different directions), so a cached result computed under one
	// ancestor chain is not generally reusable under another. Resolving
	// from a bare visited set removes that path-dependence, since the
	// only ancestor this expansion can ever collide with is itself.
	cacheable := r.Cache != nil && len(visited) == 0

	var hash [32]byte
	if cacheable {
		hash = cache.ContentHash(raw)
		if hit, ok, err := r.Cache.Lookup(ctx, bankID, reg, addr, hash); err != nil {
			return "", err
		} else if ok {
			return hit, nil
		}
	}

	descended := make(map[string]struct{}, len(visited)+1)
	for k := range visited {
		descended[k] = struct{}{}
	}
	descended[canonicalKey] = struct{}{}

	resolved, err := r.Resolve(ctx, bankID, string(raw), descended)
	if err != nil {
		return "", err
	}

	if cacheable {
		if err := r.Cache.Store(ctx, bankID, reg, addr, hash, resolved); err != nil {
			return "", err
		}
	}

	return resolved, nil
}
