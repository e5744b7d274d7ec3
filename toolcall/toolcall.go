// Package toolcall converts a free-form model completion into a typed
// tool invocation. The completion is expected to contain one markup
// block of the form:
//
//	<tool_call>
//	<tool>WebSearch</tool>
//	<args>
//	<query>solana validator economics</query>
//	<max_results>5</max_results>
//	</args>
//	</tool_call>
//
// The parser is tolerant: absent markup, an empty tool name, or
// malformed fields all normalize to the empty invocation. It never
// returns an error and performs no I/O.
package toolcall

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// FieldType is the declared type of one parameter field.
type FieldType string

const (
	// TypeString passes the matched text through unchanged.
	TypeString FieldType = "string"
	// TypeNumber parses the matched text as a float, falling back to the
	// declared default when the text does not parse.
	TypeNumber FieldType = "number"
	// TypeStringList splits the matched text on commas.
	TypeStringList FieldType = "string_list"
)

// Field declares one parameter of a tool's call contract.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	// Default is substituted when an optional field is missing, or when
	// a numeric field fails to parse.
	Default any
}

// Invocation is a parsed (tool, parameters) pair. An empty Tool means
// the model selected no tool.
type Invocation struct {
	Tool   string
	Params map[string]any
}

// IsEmpty reports whether no tool was selected.
func (inv Invocation) IsEmpty() bool {
	return inv.Tool == ""
}

// ArgsJSON returns the parameters serialized as a JSON object.
func (inv Invocation) ArgsJSON() string {
	if len(inv.Params) == 0 {
		return "{}"
	}
	bs, _ := json.Marshal(inv.Params)
	return string(bs)
}

var (
	reBlock = regexp.MustCompile(`(?s)<tool_call>(.*?)(?:</tool_call>|\z)`)
	reTool  = regexp.MustCompile(`(?s)<tool>(.*?)</tool>`)
)

// ParseName extracts the tool name from the completion, independent of
// any parameter schema, so the caller can look up the matching contract
// before parsing parameters. Returns "" when no tool block is present.
func ParseName(text string) string {
	block := reBlock.FindStringSubmatch(text)
	if block == nil {
		return ""
	}
	m := reTool.FindStringSubmatch(block[1])
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Parse extracts a typed invocation from the completion. Matched fields
// are coerced per their declared type; missing optional fields fall back
// to declared defaults; missing required fields are left absent for
// downstream validation to reject. A completion without a usable tool
// block yields the empty invocation.
func Parse(text string, fields []Field) Invocation {
	name := ParseName(text)
	if name == "" {
		return Invocation{}
	}

	inv := Invocation{
		Tool:   name,
		Params: make(map[string]any),
	}

	block := reBlock.FindStringSubmatch(text)[1]
	for _, f := range fields {
		raw, ok := matchField(block, f.Name)
		if !ok || raw == "" {
			if !f.Required && f.Default != nil {
				inv.Params[f.Name] = f.Default
			}
			continue
		}
		if v := coerce(raw, f); v != nil {
			inv.Params[f.Name] = v
		}
	}
	return inv
}

func matchField(block, name string) (string, bool) {
	re, err := regexp.Compile(`(?s)<` + regexp.QuoteMeta(name) + `>(.*?)</` + regexp.QuoteMeta(name) + `>`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func coerce(raw string, f Field) any {
	switch f.Type {
	case TypeNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f.Default
		}
		return v
	case TypeStringList:
		var list []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		return list
	default:
		return raw
	}
}
