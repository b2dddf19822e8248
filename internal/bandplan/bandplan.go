// Package bandplan loads frequency band tables and histogram settings from
// YAML files:
//
//	bands:
//	  "0": [8000, 10000]
//	  "1": [10000, 12000]
//	boundary: [8000, 12000]
//	omit: ["1"]
//
// Band order in the file is preserved.
package bandplan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

// Plan is a decoded band plan file.
type Plan struct {
	Bands     *freqscan.BandTable
	Boundary  *freqscan.Boundary // nil when not set
	Omit      []string
	Normalize *bool  // nil when not set
	DateBin   string // empty when not set
	Theme     string // empty when not set
}

type document struct {
	Bands     yaml.Node `yaml:"bands"`
	Boundary  []float64 `yaml:"boundary"`
	Omit      omitList  `yaml:"omit"`
	Normalize *bool     `yaml:"normalize"`
	DateBin   string    `yaml:"dateBin"`
	Theme     string    `yaml:"theme"`
}

// omitList accepts a single band id or a list of them.
type omitList []string

func (o *omitList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*o = omitList{value.Value}
		return nil

	case yaml.SequenceNode:
		ids := make(omitList, 0, len(value.Content))
		for _, n := range value.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: band id must be a scalar", n.Line)
			}
			ids = append(ids, n.Value)
		}
		*o = ids
		return nil
	}
	return fmt.Errorf("line %d: omit must be a band id or a list of band ids", value.Line)
}

// Load reads a band plan from a YAML file.
func Load(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening band plan: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a band plan from r.
func Decode(r io.Reader) (*Plan, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty band plan", freqscan.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: decoding band plan: %w", freqscan.ErrInvalidInput, err)
	}

	bands, err := ParseBands(&doc.Bands)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Bands:     bands,
		Omit:      doc.Omit,
		Normalize: doc.Normalize,
		DateBin:   doc.DateBin,
		Theme:     doc.Theme,
	}

	if doc.Boundary != nil {
		if len(doc.Boundary) != 2 {
			return nil, fmt.Errorf("%w: boundary must have exactly two bounds, got %d", freqscan.ErrInvalidInput, len(doc.Boundary))
		}
		plan.Boundary = &freqscan.Boundary{Low: doc.Boundary[0], High: doc.Boundary[1]}
	}
	return plan, nil
}

// ParseBands converts a YAML mapping of band id to [low, high] into a band
// table, keeping the mapping order.
func ParseBands(node *yaml.Node) (*freqscan.BandTable, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: invalid frequency bands format: expected a mapping", freqscan.ErrInvalidInput)
	}

	table := &freqscan.BandTable{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: band id must be a scalar", freqscan.ErrInvalidInput, key.Line)
		}
		if value.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: line %d: band %q must be a [low, high] list", freqscan.ErrInvalidInput, value.Line, key.Value)
		}

		rng := make([]float64, len(value.Content))
		for j, n := range value.Content {
			if n.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: line %d: band %q bound must be a number", freqscan.ErrInvalidInput, n.Line, key.Value)
			}
			if err := n.Decode(&rng[j]); err != nil {
				return nil, fmt.Errorf("%w: line %d: band %q bound must be a number", freqscan.ErrInvalidInput, n.Line, key.Value)
			}
		}

		if err := table.Add(key.Value, rng); err != nil {
			return nil, fmt.Errorf("line %d: %w", value.Line, err)
		}
	}
	return table, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(p []byte) (*Plan, error) {
	return Decode(bytes.NewReader(p))
}
