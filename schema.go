package chatschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	jsv "github.com/santhosh-tekuri/jsonschema/v6"
)

// Result is the outcome of SafeParse. On success Value holds the parsed
// value and Err is nil; on failure Value is the zero value.
type Result[T any] struct {
	Success bool
	Value   T
	Err     *ShapeMismatchError
}

// Get returns the parsed value, or the mismatch as an error.
func (r Result[T]) Get() (T, error) {
	if !r.Success {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}

// Schema is a named structural contract for T, backed by a compiled JSON
// Schema definition. Schemas are immutable and safe for concurrent use.
type Schema[T any] struct {
	name     string
	compiled *jsv.Schema
}

func newSchema[T any](name string) Schema[T] {
	compiled, err := schemaCompiler.Compile(definitionURL(name))
	if err != nil {
		panic(fmt.Sprintf("chatschema: compile %s: %v", name, err))
	}
	return Schema[T]{name: name, compiled: compiled}
}

// Name returns the schema name used in error messages and metrics.
func (s Schema[T]) Name() string {
	return s.name
}

// SafeParse validates v without panicking. v may be a decoded JSON/YAML
// tree, raw JSON bytes, or any value encoding/json can marshal.
func (s Schema[T]) SafeParse(v any) Result[T] {
	tree, err := normalize(v)
	if err != nil {
		return s.fail([]Issue{{
			Code:     IssueInvalidType,
			Expected: "JSON value",
			Received: fmt.Sprintf("%T", v),
			Message:  err.Error(),
		}})
	}

	if err := s.compiled.Validate(tree); err != nil {
		var verr *jsv.ValidationError
		if !errors.As(err, &verr) {
			return s.fail([]Issue{{Code: IssueInvalidValue, Received: describe(tree), Message: err.Error()}})
		}
		return s.fail(collectIssues(tree, verr))
	}

	out, issue, ok := decodeValidated[T](tree)
	if !ok {
		return s.fail([]Issue{issue})
	}
	return Result[T]{Success: true, Value: out}
}

// SafeParseJSON decodes data as a single JSON document and validates it.
func (s Schema[T]) SafeParseJSON(data []byte) Result[T] {
	return s.SafeParse(json.RawMessage(data))
}

// Validate is SafeParse for callers that only need an error.
func (s Schema[T]) Validate(v any) error {
	if r := s.SafeParse(v); !r.Success {
		return r.Err
	}
	return nil
}

func (s Schema[T]) fail(issues []Issue) Result[T] {
	return Result[T]{Err: &ShapeMismatchError{Schema: s.name, Issues: issues}}
}

// decodeValidated maps an accepted tree onto T. The tree already satisfies
// the schema, so a failure here means a number the Go field cannot hold.
func decodeValidated[T any](tree any) (T, Issue, bool) {
	var out T

	data, err := json.Marshal(tree)
	if err != nil {
		return out, Issue{Code: IssueInvalidType, Expected: "JSON value", Received: describe(tree), Message: err.Error()}, false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		var zero T
		issue := Issue{Code: IssueInvalidType, Received: describe(tree), Message: err.Error()}

		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			issue.Path = typeErr.Field
			issue.Expected = typeErr.Type.String()
			issue.Received = typeErr.Value
			if strings.HasPrefix(typeErr.Value, "number") {
				issue.Code = IssueOutOfRange
				issue.Message = "number does not fit " + typeErr.Type.String()
			}
		}
		return zero, issue, false
	}
	return out, Issue{}, true
}

// ============================================================================
// INPUT NORMALIZATION
// ============================================================================

// maxNestingDepth matches the nesting limit of encoding/json's decoder.
const maxNestingDepth = 10000

var (
	errTrailingData = errors.New("unexpected data after top-level JSON value")
	errCycle        = errors.New("value contains a reference cycle")
	errTooDeep      = errors.New("value exceeds maximum nesting depth")
)

// normalize turns v into a fresh tree of map[string]any, []any, strings,
// booleans, nil and canonical json.Number values.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case json.RawMessage:
		return decodeJSON(t)
	case []byte:
		return decodeJSON(t)
	}

	n := normalizer{active: make(map[containerKey]struct{})}
	return n.walk(v, 0)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	n := normalizer{active: make(map[containerKey]struct{})}
	return n.walk(v, 0)
}

// containerKey identifies a map or slice on the current descent path.
type containerKey struct {
	ptr uintptr
	len int
}

type normalizer struct {
	active map[containerKey]struct{}
}

func (n *normalizer) walk(v any, depth int) (any, error) {
	if depth > maxNestingDepth {
		return nil, errTooDeep
	}

	switch t := v.(type) {
	case nil, string, bool:
		return t, nil
	case json.Number:
		return canonicalNumber(string(t))
	case map[string]any:
		key := containerKey{ptr: reflect.ValueOf(t).Pointer()}
		if err := n.enter(key); err != nil {
			return nil, err
		}
		defer delete(n.active, key)

		out := make(map[string]any, len(t))
		for k, item := range t {
			norm, err := n.walk(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = norm
		}
		return out, nil
	case []any:
		if len(t) > 0 {
			key := containerKey{ptr: reflect.ValueOf(t).Pointer(), len: len(t)}
			if err := n.enter(key); err != nil {
				return nil, err
			}
			defer delete(n.active, key)
		}

		out := make([]any, len(t))
		for i, item := range t {
			norm, err := n.walk(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	}

	if num, ok, err := goNumber(v); ok {
		return num, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return decodeJSON(data)
}

func (n *normalizer) enter(key containerKey) error {
	if _, seen := n.active[key]; seen {
		return errCycle
	}
	n.active[key] = struct{}{}
	return nil
}

// goNumber converts Go numeric kinds to json.Number.
func goNumber(v any) (json.Number, bool, error) {
	var f float64
	switch n := v.(type) {
	case int:
		return json.Number(strconv.FormatInt(int64(n), 10)), true, nil
	case int8:
		return json.Number(strconv.FormatInt(int64(n), 10)), true, nil
	case int16:
		return json.Number(strconv.FormatInt(int64(n), 10)), true, nil
	case int32:
		return json.Number(strconv.FormatInt(int64(n), 10)), true, nil
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), true, nil
	case uint:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true, nil
	case uint8:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true, nil
	case uint16:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true, nil
	case uint32:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true, nil
	case uint64:
		return json.Number(strconv.FormatUint(n, 10)), true, nil
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return "", false, nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", true, fmt.Errorf("unsupported number %v", f)
	}
	num, err := canonicalNumber(strconv.FormatFloat(f, 'g', -1, 64))
	return num, true, err
}

// canonicalNumber rewrites integral numbers written with a fraction or
// exponent (5.0, 1e3) in plain integer form when they fit in an int64.
// Magnitudes beyond float64 are clamped to ±1e309 and underflows become 0,
// so bound checks never expand huge exponents.
func canonicalNumber(s string) (json.Number, error) {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) || !json.Valid([]byte(s)) {
		return "", fmt.Errorf("invalid number %q", s)
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return json.Number(s), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if math.IsInf(f, -1) {
			return "-1e309", nil
		}
		return "1e309", nil
	}
	if f == 0 {
		return "0", nil
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return json.Number(s), nil
	}

	r, ok := new(big.Rat).SetString(s)
	if ok && r.IsInt() && r.Num().IsInt64() {
		return json.Number(r.Num().String()), nil
	}
	return json.Number(s), nil
}

// describe names the JSON kind of v.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case json.Number:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
