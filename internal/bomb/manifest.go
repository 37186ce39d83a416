package bomb

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/bombsquad-bot/bombsquad/internal/module"
)

// ModuleCap is the default bound on how many modules a single session may
// hold, used when no limit is configured.
const ModuleCap = 101

// distributions maps a distribution name to its vanilla fraction.
var distributions = map[string]float64{
	"vanilla":    1,
	"mods":       0,
	"modded":     0,
	"mixed":      0.5,
	"lightmixed": 0.67,
	"mixedlight": 0.67,
	"heavymixed": 0.33,
	"mixedheavy": 0.33,
	"light":      0.8,
	"heavy":      0.2,
	"extralight": 0.9,
	"extraheavy": 0.1,
}

// Distributions returns the distribution names in sorted order, for help text.
func Distributions() []string {
	names := make([]string, 0, len(distributions))
	for name := range distributions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseManifest turns run arguments into fresh module instances. Two grammars
// are accepted: `<count> <distribution> [-<veto> ...]` and
// `<selector>[*<count>] ...`. Unknown selectors and vetoes are rejected with
// the offending name; so are empty manifests and manifests over limit
// (ModuleCap when limit is unpositive).
func ParseManifest(reg *module.Registry, args []string, limit int, rng *rand.Rand) ([]module.Module, error) {
	if limit < 1 {
		limit = ModuleCap
	}
	if len(args) == 0 {
		return nil, UserError("a manifest is required, see `run` usage")
	}

	var ids []string
	var err error
	if isDigits(args[0]) {
		ids, err = parseDistribution(reg, args, limit, rng)
	} else {
		ids, err = parseExplicit(reg, args, limit)
	}
	if err != nil {
		return nil, err
	}

	mods := make([]module.Module, 0, len(ids))
	for _, id := range ids {
		mod, err := reg.Resolve(id)
		if err != nil {
			return nil, fmt.Errorf("bomb: resolve %s: %w", id, err)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseDistribution(reg *module.Registry, args []string, limit int, rng *rand.Rand) ([]string, error) {
	count, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, UserError(fmt.Sprintf("bad module count %q", args[0]))
	}
	if count == 0 {
		return nil, UserError("what would it even mean for a bomb to have no modules?")
	}
	if count > limit {
		return nil, UserError(fmt.Sprintf("%d modules is too many, the cap is %d", count, limit))
	}
	if len(args) < 2 {
		return nil, UserError("a distribution name is required, see `run` usage")
	}
	fraction, ok := distributions[strings.ToLower(args[1])]
	if !ok {
		return nil, UserError(fmt.Sprintf("no such distribution: `%s`", args[1]))
	}

	vanilla := reg.Vanilla(true)
	modded := reg.Vanilla(false)
	for _, veto := range args[2:] {
		if !strings.HasPrefix(veto, "-") {
			return nil, UserError(fmt.Sprintf("vetoes start with `-`, got `%s`", veto))
		}
		name := veto[1:]
		var removed bool
		vanilla, removed = removeID(vanilla, name)
		if !removed {
			modded, removed = removeID(modded, name)
		}
		if !removed {
			return nil, UserError(fmt.Sprintf("no such module: `%s`", name))
		}
	}

	vanillaCount := int(fraction * float64(count))
	if (len(vanilla) == 0 || vanillaCount == 0) && (len(modded) == 0 || vanillaCount == count) {
		return nil, UserError("you've vetoed all the modules! If you don't want to play, just say so!")
	}
	if len(vanilla) == 0 {
		vanillaCount = 0
	} else if len(modded) == 0 {
		vanillaCount = count
	}

	var ids []string
	for _, group := range []struct {
		candidates []string
		count      int
	}{
		{vanilla, vanillaCount},
		{modded, count - vanillaCount},
	} {
		if len(group.candidates) == 0 {
			continue
		}
		for i := 0; i < group.count/len(group.candidates); i++ {
			ids = append(ids, group.candidates...)
		}
		for _, pick := range rng.Perm(len(group.candidates))[:group.count%len(group.candidates)] {
			ids = append(ids, group.candidates[pick])
		}
	}
	return ids, nil
}

func parseExplicit(reg *module.Registry, args []string, limit int) ([]string, error) {
	var ids []string
	for _, arg := range args {
		id := arg
		count := 1
		if strings.Contains(arg, "*") {
			if strings.Count(arg, "*") > 1 {
				return nil, UserError(fmt.Sprintf("don't you think there's too many stars in `%s`?", arg))
			}
			left, right := splitStar(arg)
			switch {
			case isDigits(left) && !isDigits(right):
				count, _ = strconv.Atoi(left)
				id = right
			case !isDigits(left) && isDigits(right):
				count, _ = strconv.Atoi(right)
				id = left
			default:
				return nil, UserError(fmt.Sprintf("`%s`: which one is the module and which one is the count?", arg))
			}
		}
		if !reg.Known(id) {
			return nil, UserError(fmt.Sprintf("no such module: `%s`", id))
		}
		if count > limit || len(ids)+count > limit {
			return nil, UserError(fmt.Sprintf("too many modules, the cap is %d", limit))
		}
		for i := 0; i < count; i++ {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, UserError("what would it even mean for a bomb to have no modules?")
	}
	return ids, nil
}

func splitStar(arg string) (string, string) {
	parts := strings.SplitN(arg, "*", 2)
	return parts[0], parts[1]
}

func removeID(ids []string, id string) ([]string, bool) {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
