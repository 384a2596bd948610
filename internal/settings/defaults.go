package settings

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed defaults.cue
var defaultsCUE string

var loadDefaults = sync.OnceValues(func() (Document, error) {
	return decodeDefaults(defaultsCUE)
})

// Defaults returns a fresh copy of the canonical default document:
//
//	{left_sidebar_open: true, right_sidebar_open: true,
//	 left_width: 320, right_width: 320, theme: "system"}
//
// Both bootstrap seeding and lazy record creation start from this document.
// Panics if the embedded CUE source is invalid, which a unit test rules out.
func Defaults() Document {
	doc, err := loadDefaults()
	if err != nil {
		panic(err)
	}
	return doc.Clone()
}

// decodeDefaults compiles CUE source and converts its concrete "defaults"
// struct into a Document.
func decodeDefaults(src string) (Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("defaults.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile defaults: %w", err)
	}

	defaults := v.LookupPath(cue.ParsePath("defaults"))
	if !defaults.Exists() {
		return nil, fmt.Errorf("compile defaults: no defaults field")
	}
	if err := defaults.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate defaults: %w", err)
	}

	iter, err := defaults.Fields()
	if err != nil {
		return nil, fmt.Errorf("read defaults: %w", err)
	}

	doc := make(Document)
	for iter.Next() {
		name := iter.Label()
		val, err := cueToValue(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("default %q: %w", name, err)
		}
		doc[name] = val
	}
	return doc, nil
}

func cueToValue(v cue.Value) (Value, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case cue.IntKind, cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	default:
		return nil, fmt.Errorf("%w: unsupported kind %s", ErrInvalid, v.Kind())
	}
}
