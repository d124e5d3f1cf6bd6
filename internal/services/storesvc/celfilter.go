package storesvc

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/raksha-git/icecp-module-storage/internal/store"
)

// celFilter wraps a compiled CEL program evaluated against stored messages.
// When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("mid", cel.IntType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		// Expose parsed JSON payload (map/list/values) for field filtering
		cel.Variable("json", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a message. When disabled,
// returns true.
func (f celFilter) Eval(m store.Message) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(m.Content, &jsonObj)
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	out, _, err := f.prog.Eval(map[string]any{
		"mid":    int64(m.ID),
		"ts_ms":  m.Timestamp,
		"size":   int64(len(m.Content)),
		"text":   string(m.Content),
		"tags":   tags,
		"json":   jsonObj,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
