package learner

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/atelierhq/decormem/pkg/model"
)

//go:embed lexicon.yml
var defaultLexiconYAML []byte

// matchOrder fixes the iteration order over preference types so that
// extraction output is deterministic.
var matchOrder = []model.PreferenceType{
	model.PreferenceTypeStyle,
	model.PreferenceTypeColor,
	model.PreferenceTypeMaterial,
	model.PreferenceTypeWarmth,
	model.PreferenceTypeComplexity,
}

// Signal is one candidate preference extracted from a text or image.
type Signal struct {
	Type  model.PreferenceType
	Value string
}

// Lexicon maps preference types to values and their trigger terms. Loaded
// once at initialization and immutable afterwards.
type Lexicon struct {
	terms map[model.PreferenceType]map[string][]string
}

// DefaultLexicon parses the embedded trigger-term dictionary.
func DefaultLexicon() (*Lexicon, error) {
	return parseLexicon(defaultLexiconYAML)
}

// LoadLexicon reads a custom trigger-term dictionary from a YAML file.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read lexicon file", goerr.V("path", path))
	}
	return parseLexicon(data)
}

func parseLexicon(data []byte) (*Lexicon, error) {
	var raw map[string]map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse lexicon")
	}

	terms := make(map[model.PreferenceType]map[string][]string, len(raw))
	for typ, values := range raw {
		lowered := make(map[string][]string, len(values))
		for value, triggers := range values {
			list := make([]string, 0, len(triggers))
			for _, t := range triggers {
				list = append(list, strings.ToLower(t))
			}
			lowered[strings.ToLower(value)] = list
		}
		terms[model.PreferenceType(typ)] = lowered
	}

	return &Lexicon{terms: terms}, nil
}

// Match scans the text against all trigger terms and returns one signal
// per matched (type, value) pair.
func (l *Lexicon) Match(text string) []Signal {
	lowered := strings.ToLower(text)

	var signals []Signal
	for _, typ := range matchOrder {
		values := l.terms[typ]

		matched := make([]string, 0, len(values))
		for value, triggers := range values {
			for _, term := range triggers {
				if strings.Contains(lowered, term) {
					matched = append(matched, value)
					break
				}
			}
		}

		sort.Strings(matched)
		for _, value := range matched {
			signals = append(signals, Signal{Type: typ, Value: value})
		}
	}

	return signals
}
