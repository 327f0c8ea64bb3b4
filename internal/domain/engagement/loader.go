package engagement

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed example.yaml
var exampleDocument []byte

// Load reads an engagement document from path, or the embedded example when
// path is empty. JSON documents load too since YAML is a superset.
func Load(_ context.Context, path string) (*Engagement, error) {
	var p koanf.Provider = rawProvider(exampleDocument)
	if path != "" {
		p = file.Provider(path)
	}

	k := koanf.New(".")
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, describe(path), err)
	}
	var doc Document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, describe(path), err)
	}

	e, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEngagement, err)
	}
	if err := Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Parse decodes and validates a document held in memory.
func Parse(data []byte) (*Engagement, error) {
	k := koanf.New(".")
	if err := k.Load(rawProvider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	var doc Document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	e, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEngagement, err)
	}
	if err := Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Example returns the embedded example engagement.
func Example() *Engagement {
	e, err := Parse(exampleDocument)
	if err != nil {
		panic(fmt.Sprintf("engagement: embedded example is invalid: %v", err))
	}
	return e
}

func describe(path string) string {
	if path == "" {
		return "embedded example"
	}
	return path
}

// rawProvider serves an in-memory document to koanf.
type rawProvider []byte

func (r rawProvider) ReadBytes() ([]byte, error) { return r, nil }

func (r rawProvider) Read() (map[string]any, error) {
	return nil, errors.New("raw provider does not support Read")
}
