package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
)

// LoadJSON reads a JSON array of flat objects. Key order of first appearance
// becomes the column order. Nested arrays or objects are kept as their
// raw JSON text.
func LoadJSON(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open json: %w", err)
	}
	defer f.Close()
	ds, err := readJSON(f, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	ds.Name = filepath.Base(path)
	return ds, nil
}

func readJSON(src io.Reader, opt Options) (*Dataset, error) {
	dec := json.NewDecoder(src)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Dataset{}, nil
		}
		return nil, fmt.Errorf("read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("read json: expected an array of records")
	}
	ds := &Dataset{}
	seen := map[string]struct{}{}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for dec.More() {
		rec, keys, err := readObject(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", ds.Total+1, err)
		}
		ds.Total++
		if len(ds.Rows) >= maxRows {
			continue
		}
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				ds.Columns = append(ds.Columns, k)
			}
		}
		ds.Rows = append(ds.Rows, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return ds, nil
}

func readObject(dec *json.Decoder) (Record, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	rec := Record{}
	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		v, err := jsonValue(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

func jsonValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case '{', '[':
		return string(raw), nil
	}
	var v any
	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case json.Number:
		f, err := cast.ToFloat64E(x)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return x.String(), nil
		}
		return f, nil
	case string:
		if x == "" {
			return nil, nil
		}
		return x, nil
	default:
		return x, nil
	}
}
