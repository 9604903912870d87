package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	stderrors "errors"

	"github.com/buger/jsonparser"
	"github.com/mcncl/jsonshape/internal/errors"
	"github.com/mcncl/jsonshape/internal/models"
)

// Parse reads one JSON document from reader into an ordered Value tree.
//
// The input is first checked with encoding/json, which is strict about
// RFC 8259 and reports byte offsets for syntax errors. The tree itself is
// then built with jsonparser, whose ObjectEach walks members in document
// order so objects keep their insertion order.
func Parse(reader io.Reader) (models.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a JSON document held in memory.
func ParseBytes(data []byte) (models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	raw, err := validate(data)
	if err != nil {
		return models.Document{}, err
	}
	raw = ReplaceLoneSurrogates(raw)

	vdata, vtype, _, err := jsonparser.Get(raw)
	if err != nil {
		return models.Document{}, errors.NewParsingError("failed to decode JSON", err)
	}
	root, err := build(vdata, vtype)
	if err != nil {
		return models.Document{}, errors.NewParsingError("failed to decode JSON", err)
	}

	return models.Document{
		Root:        root,
		RootIsArray: root.Kind == models.Array,
	}, nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Document, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.Document{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseBytes([]byte(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.Document, error) {
	data, err := ReadFile(filePath)
	if err != nil {
		return models.Document{}, err
	}
	return ParseBytes(data)
}

// ReadFile reads a non-empty input file, mapping the usual failures onto
// input errors.
func ReadFile(filePath string) ([]byte, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(fmt.Sprintf("file '%s' not found", filePath), errors.ErrFileNotFound)
		}
		return nil, errors.NewInputError(fmt.Sprintf("failed to open file '%s'", filePath), err)
	}
	if len(data) == 0 {
		return nil, errors.NewInputError(fmt.Sprintf("input file '%s' is empty", filePath), errors.ErrFileEmpty)
	}
	return data, nil
}

// validate checks that data holds exactly one well-formed JSON value and
// returns that value's bytes.
func validate(data []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return nil, syntaxError(data, err)
	}

	var trailing json.RawMessage
	switch err := decoder.Decode(&trailing); {
	case stderrors.Is(err, io.EOF):
		return raw, nil
	case err != nil:
		return nil, syntaxError(data, err)
	default:
		return nil, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}
}

// ReplaceLoneSurrogates rewrites every \u escape of an unpaired UTF-16
// surrogate inside a string as \ufffd, the replacement encoding/json makes
// when decoding. jsonparser rejects such escapes. Malformed escapes are left
// for the decoder to report; data is returned as is when there is nothing to
// replace.
func ReplaceLoneSurrogates(data []byte) []byte {
	var out []byte
	last := 0
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if !inString {
			inString = c == '"'
			continue
		}
		switch {
		case c == '"':
			inString = false
		case c != '\\':
		case i+6 > len(data) || data[i+1] != 'u':
			i++
		default:
			r := hex4(data[i+2 : i+6])
			switch {
			case isHighSurrogate(r) && i+12 <= len(data) && data[i+6] == '\\' && data[i+7] == 'u' && isLowSurrogate(hex4(data[i+8:i+12])):
				i += 11
			case isHighSurrogate(r) || isLowSurrogate(r):
				if out == nil {
					out = make([]byte, 0, len(data))
				}
				out = append(out, data[last:i]...)
				out = append(out, `\ufffd`...)
				last = i + 6
				i += 5
			default:
				i += 5
			}
		}
	}
	if out == nil {
		return data
	}
	return append(out, data[last:]...)
}

func hex4(b []byte) rune {
	n, err := strconv.ParseUint(string(b), 16, 32)
	if err != nil {
		return -1
	}
	return rune(n)
}

func isHighSurrogate(r rune) bool { return r >= 0xD800 && r < 0xDC00 }
func isLowSurrogate(r rune) bool  { return r >= 0xDC00 && r < 0xE000 }

func syntaxError(data []byte, err error) error {
	var se *json.SyntaxError
	if stderrors.As(err, &se) {
		line, col := position(data, se.Offset)
		return errors.NewParsingErrorAt(se.Error(), line, col, errors.ErrInvalidJSON)
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		line, col := position(data, int64(len(data)))
		return errors.NewParsingErrorAt("unexpected end of JSON input", line, col, errors.ErrInvalidJSON)
	}
	return errors.NewParsingError("failed to decode JSON", err)
}

// position converts a decoder offset (bytes consumed, so one past the
// offending byte) into a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	at := int(offset) - 1
	if at < 0 {
		at = 0
	}
	line, col := 1, 1
	for i := 0; i < at; i++ {
		if data[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func build(vdata []byte, vtype jsonparser.ValueType) (models.Value, error) {
	switch vtype {
	case jsonparser.Null:
		return models.NullValue(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(vdata)
		if err != nil {
			return models.Value{}, err
		}
		return models.BoolValue(b), nil
	case jsonparser.Number:
		return models.NumberValue(string(vdata)), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(vdata)
		if err != nil {
			return models.Value{}, err
		}
		return models.StringValue(s), nil
	case jsonparser.Array:
		items := make([]models.Value, 0)
		var firstErr error
		_, err := jsonparser.ArrayEach(vdata, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
			if firstErr != nil {
				return
			}
			if err != nil {
				firstErr = err
				return
			}
			item, err := build(value, dataType)
			if err != nil {
				firstErr = err
				return
			}
			items = append(items, item)
		})
		if err != nil {
			return models.Value{}, err
		}
		if firstErr != nil {
			return models.Value{}, firstErr
		}
		return models.ArrayValue(items...), nil
	case jsonparser.Object:
		obj := models.ObjectValue()
		// Duplicate keys keep the first position and the last value.
		seen := make(map[string]int)
		err := jsonparser.ObjectEach(vdata, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
			// ObjectEach hands over keys already unescaped.
			k := string(key)
			v, err := build(value, dataType)
			if err != nil {
				return err
			}
			if i, ok := seen[k]; ok {
				obj.Fields[i].Value = v
				return nil
			}
			seen[k] = len(obj.Fields)
			obj.Fields = append(obj.Fields, models.F(k, v))
			return nil
		})
		if err != nil {
			return models.Value{}, err
		}
		return obj, nil
	default:
		return models.Value{}, fmt.Errorf("unexpected json value type: %v", vtype)
	}
}
