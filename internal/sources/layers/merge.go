package layers

import (
	"github.com/knadh/koanf/maps"
)

// Merge deep-merges overlay onto base and returns the result.
// Neither input is mutated.
//
// For each key in overlay:
//   - arrays replace the base value wholesale
//   - non-null objects merge recursively into (or create) the base object
//   - anything else, null included, overwrites
//
// Keys present only in base survive untouched.
func Merge(base, overlay Tree) Tree {
	out := copyTree(base)
	if len(overlay) == 0 {
		return out
	}
	maps.Merge(copyTree(overlay), out)
	return out
}

func copyTree(t Tree) Tree {
	if t == nil {
		return Tree{}
	}
	out := maps.Copy(t)
	maps.IntfaceKeysToStrings(out)
	return out
}
