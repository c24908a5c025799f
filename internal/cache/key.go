package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

type keyArg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type keyMaterial struct {
	Op     string   `json:"op"`
	Args   []string `json:"args"`
	Kwargs []keyArg `json:"kwargs"`
}

// Key derives a fixed-length cache key from an operation name, positional
// arguments and keyword arguments. Positional arguments are rendered with %v
// and keyword arguments are sorted by name, so equivalent calls always hash
// to the same key regardless of map iteration order.
func Key(op string, args []any, kwargs map[string]any) string {
	m := keyMaterial{Op: op, Args: make([]string, len(args)), Kwargs: make([]keyArg, 0, len(kwargs))}
	for i, a := range args {
		m.Args[i] = fmt.Sprintf("%v", a)
	}
	for name, v := range kwargs {
		m.Kwargs = append(m.Kwargs, keyArg{Name: name, Value: fmt.Sprintf("%v", v)})
	}
	sort.Slice(m.Kwargs, func(i, j int) bool { return m.Kwargs[i].Name < m.Kwargs[j].Name })

	// Marshal cannot fail: every field is a string or a slice of strings.
	raw, _ := json.Marshal(m)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
