package eval

import (
	"fmt"
	"log"
	"strings"

	"github.com/Shopify/go-lua"
)

// ScriptRules evaluates responses through a user-supplied Lua script.
// The script must define a global function
//
//	evaluate(response, pattern, alternates_csv) -> matched, effectiveness
//
// returning a boolean and a rating in [0,100]. Script failures fall back
// to the built-in matcher so a broken script never blocks play.
type ScriptRules struct {
	path string
}

// NewScriptRules wires rule evaluation to the script at path.
func NewScriptRules(path string) *ScriptRules {
	return &ScriptRules{path: path}
}

// Evaluate runs the script, falling back to Matches on any failure.
func (s *ScriptRules) Evaluate(response, pattern string, alternates []string) (bool, int) {
	matched, effectiveness, err := s.run(response, pattern, alternates)
	if err != nil {
		log.Printf("rules script failed path=%s err=%v", s.path, err)
		return Matches(response, pattern, alternates)
	}
	return matched, effectiveness
}

func (s *ScriptRules) run(response, pattern string, alternates []string) (bool, int, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.DoFile(state, s.path); err != nil {
		return false, 0, fmt.Errorf("load rules script: %w", err)
	}

	state.Global("evaluate")
	if state.TypeOf(-1) != lua.TypeFunction {
		state.Pop(1)
		return false, 0, fmt.Errorf("rules script must define evaluate()")
	}

	state.PushString(response)
	state.PushString(pattern)
	state.PushString(strings.Join(alternates, ","))
	if err := state.ProtectedCall(3, 2, 0); err != nil {
		return false, 0, fmt.Errorf("run evaluate(): %w", err)
	}

	matched := state.ToBoolean(-2)
	effectiveness, ok := state.ToInteger(-1)
	state.Pop(2)
	if !ok {
		if matched {
			effectiveness = 100
		} else {
			effectiveness = 0
		}
	}
	if effectiveness < 0 {
		effectiveness = 0
	}
	if effectiveness > 100 {
		effectiveness = 100
	}
	return matched, effectiveness, nil
}
