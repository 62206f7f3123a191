// Package canonical derives stable string identifiers from evaluation
// contexts so log lines can be correlated without exposing attribute data.
package canonical

import (
	"sort"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
)

// encoder escapes the characters that would make the ':' delimiter
// ambiguous. '%' must map first so a literal "%3A" in a key survives.
var encoder = strings.NewReplacer("%", "%25", ":", "%3A")

// Key returns the canonical key for an evaluation context.
//
// A single-kind context with the default "user" kind reduces to its encoded
// key alone. Any other single kind renders as "kind:key". A multi-kind
// context produces one "kind:key" segment per constituent, sorted by kind
// name and joined with ':', so the result is independent of construction
// order. Literal '%' and ':' inside keys are percent-encoded ("%25", "%3A").
//
// Key never fails: a context whose structure cannot be read falls back to
// its string rendering, because logging must never break an evaluation.
func Key(ctx ldcontext.Context) string {
	if ctx.Err() != nil {
		return ctx.String()
	}
	if !ctx.Multiple() {
		return singleKey(ctx)
	}

	count := ctx.IndividualContextCount()
	if count == 0 {
		return EncodeKey(ctx.Key())
	}

	type segment struct {
		kind string
		key  string
	}
	segments := make([]segment, 0, count)
	for i := 0; i < count; i++ {
		sub := ctx.IndividualContextByIndex(i)
		segments = append(segments, segment{
			kind: string(sub.Kind()),
			key:  EncodeKey(sub.Key()),
		})
	}
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].kind < segments[j].kind
	})

	parts := make([]string, 0, count)
	for _, s := range segments {
		parts = append(parts, s.kind+":"+s.key)
	}
	return strings.Join(parts, ":")
}

// EncodeKey escapes '%' and ':' in a raw context key.
func EncodeKey(key string) string {
	return encoder.Replace(key)
}

func singleKey(ctx ldcontext.Context) string {
	encoded := EncodeKey(ctx.Key())
	if ctx.Kind() == ldcontext.DefaultKind {
		return encoded
	}
	return string(ctx.Kind()) + ":" + encoded
}
