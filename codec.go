package hotstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeOption configures DecodeEntries.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	configure []func(*json.Decoder)
}

// WithUseNumber decodes numeric value payloads as json.Number instead of
// float64.
func WithUseNumber() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.configure = append(cfg.configure, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithDecoderConfig allows callers to configure the json.Decoder used for value
// payloads directly.
func WithDecoderConfig(configure func(*json.Decoder)) DecodeOption {
	return func(cfg *decodeConfig) {
		if configure != nil {
			cfg.configure = append(cfg.configure, configure)
		}
	}
}

// MarshalJSON encodes the snapshot as an array of tagged tuples:
//
//	["_", {key: index}]
//	["v", value]
//	["a", [index...], paths]
//	["o", {key: index}, paths]
//	["r", index, paths]
//	["k", paths]
func (e Entries) MarshalJSON() ([]byte, error) {
	tuples := make([][]any, len(e))
	for i, entry := range e {
		switch entry.Tag {
		case TagRoot:
			tuples[i] = []any{entry.Tag, fieldsOrEmpty(entry.Fields)}
		case TagValue:
			tuples[i] = []any{entry.Tag, entry.Value}
		case TagArray:
			items := entry.Items
			if items == nil {
				items = []int{}
			}
			tuples[i] = []any{entry.Tag, items, pathsOrEmpty(entry.Paths)}
		case TagObject:
			tuples[i] = []any{entry.Tag, fieldsOrEmpty(entry.Fields), pathsOrEmpty(entry.Paths)}
		case TagCell:
			tuples[i] = []any{entry.Tag, entry.Target, pathsOrEmpty(entry.Paths)}
		case TagKeep:
			tuples[i] = []any{entry.Tag, pathsOrEmpty(entry.Paths)}
		default:
			return nil, fmt.Errorf("hotstate: encode entry %d: unknown tag %q", i, string(entry.Tag))
		}
	}
	out, err := json.Marshal(tuples)
	if err != nil {
		return nil, fmt.Errorf("hotstate: encode entries: %w", err)
	}
	return out, nil
}

// UnmarshalJSON decodes the tagged-tuple form produced by MarshalJSON.
func (e *Entries) UnmarshalJSON(data []byte) error {
	entries, err := DecodeEntries(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*e = entries
	return nil
}

// DecodeEntries reads one tagged-tuple snapshot from r.
func DecodeEntries(r io.Reader, opts ...DecodeOption) (Entries, error) {
	cfg := decodeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var tuples [][]json.RawMessage
	if err := json.NewDecoder(r).Decode(&tuples); err != nil {
		return nil, fmt.Errorf("hotstate: decode entries: %w", err)
	}

	entries := make(Entries, len(tuples))
	for i, tuple := range tuples {
		entry, err := cfg.decodeEntry(tuple)
		if err != nil {
			return nil, fmt.Errorf("hotstate: decode entry %d: %w", i, err)
		}
		entries[i] = entry
	}
	return entries, nil
}

var tupleSizes = map[Tag]int{
	TagRoot:   2,
	TagValue:  2,
	TagArray:  3,
	TagObject: 3,
	TagCell:   3,
	TagKeep:   2,
}

func (cfg decodeConfig) decodeEntry(tuple []json.RawMessage) (Entry, error) {
	if len(tuple) == 0 {
		return Entry{}, fmt.Errorf("empty tuple")
	}
	var tag Tag
	if err := json.Unmarshal(tuple[0], &tag); err != nil {
		return Entry{}, fmt.Errorf("tag: %w", err)
	}

	size, known := tupleSizes[tag]
	if !known {
		return Entry{}, fmt.Errorf("unknown tag %q", string(tag))
	}
	if len(tuple) != size {
		return Entry{}, fmt.Errorf("%s tuple has %d elements, want %d", tag, len(tuple), size)
	}

	entry := Entry{Tag: tag}
	var err error
	switch tag {
	case TagRoot:
		err = json.Unmarshal(tuple[1], &entry.Fields)
	case TagValue:
		entry.Value, err = cfg.decodeValue(tuple[1])
	case TagArray:
		if err = json.Unmarshal(tuple[1], &entry.Items); err == nil {
			err = json.Unmarshal(tuple[2], &entry.Paths)
		}
	case TagObject:
		if err = json.Unmarshal(tuple[1], &entry.Fields); err == nil {
			err = json.Unmarshal(tuple[2], &entry.Paths)
		}
	case TagCell:
		if err = json.Unmarshal(tuple[1], &entry.Target); err == nil {
			err = json.Unmarshal(tuple[2], &entry.Paths)
		}
	case TagKeep:
		err = json.Unmarshal(tuple[1], &entry.Paths)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", tag, err)
	}
	return entry, nil
}

func (cfg decodeConfig) decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	for _, configure := range cfg.configure {
		configure(dec)
	}
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

// MarshalJSON encodes a path as an array of keys (strings), indexes
// (integers) and nested paths (arrays).
func (p Path) MarshalJSON() ([]byte, error) {
	out := make([]any, len(p))
	for i, step := range p {
		switch step.Kind {
		case StepKey:
			out[i] = step.Key
		case StepIndex:
			out[i] = step.Index
		case StepNested:
			nested := step.Nested
			if nested == nil {
				nested = Path{}
			}
			out[i] = nested
		default:
			return nil, fmt.Errorf("unknown step kind %d", step.Kind)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (p *Path) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	path := make(Path, len(raw))
	for i, item := range raw {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 {
			return fmt.Errorf("path step %d is empty", i)
		}
		switch trimmed[0] {
		case '"':
			var key string
			if err := json.Unmarshal(trimmed, &key); err != nil {
				return fmt.Errorf("path step %d: %w", i, err)
			}
			path[i] = Key(key)
		case '[':
			var nested Path
			if err := json.Unmarshal(trimmed, &nested); err != nil {
				return fmt.Errorf("path step %d: %w", i, err)
			}
			path[i] = Step{Kind: StepNested, Nested: nested}
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			var index int
			if err := json.Unmarshal(trimmed, &index); err != nil {
				return fmt.Errorf("path step %d: %w", i, err)
			}
			path[i] = Index(index)
		default:
			return fmt.Errorf("path step %d: expected key, index or nested path, got %s", i, trimmed)
		}
	}
	*p = path
	return nil
}

func fieldsOrEmpty(fields map[string]int) map[string]int {
	if fields == nil {
		return map[string]int{}
	}
	return fields
}

func pathsOrEmpty(paths []Path) []Path {
	if paths == nil {
		return []Path{}
	}
	return paths
}
