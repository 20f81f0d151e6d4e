// Package answers normalizes the heterogeneous submission payloads the form
// provider sends into one canonical ordered answer list. Answer order is the
// positional contract everything downstream (id fields, conditional rules,
// question titles) is interpreted against, so decoding goes through a
// token-level walk that keeps object keys in wire order instead of a Go map.
package answers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Answer is one normalized question/answer pair.
type Answer struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

// Envelope metadata keys that never become answers of their own.
var envelopeKeys = map[string]bool{
	"formId":     true,
	"form_id":    true,
	"formTitle":  true,
	"form_title": true,
	"answers":    true,
}

// Normalize converts any submission payload shape into an ordered answer
// list. It never fails: an un-normalizable payload degrades to an empty
// list, and malformed entries inside a recognizable payload are skipped.
func Normalize(raw json.RawMessage) []Answer {
	n, err := parse(raw)
	if err != nil {
		return nil
	}
	return fromNode(n, false)
}

func fromNode(n node, reparsed bool) []Answer {
	switch n.kind {
	case kindArray:
		return fromArray(n.arr)
	case kindString:
		// One extra decode for payloads that arrive as a JSON-encoded
		// string. A string that is not itself JSON becomes one answer.
		if !reparsed {
			if inner, err := parse([]byte(n.str)); err == nil {
				return fromNode(inner, true)
			}
		}
		return []Answer{{QuestionID: "q0", Text: n.str}}
	case kindObject:
		if data, ok := providerData(n); ok {
			return fromProviderData(data)
		}
		return fromFlat(n.obj)
	default:
		return nil
	}
}

// fromArray handles already-canonical answer arrays.
func fromArray(items []node) []Answer {
	out := make([]Answer, 0, len(items))
	for i, it := range items {
		a := Answer{QuestionID: "q" + strconv.Itoa(i)}
		switch it.kind {
		case kindObject:
			if id, ok := it.lookup("question_id"); ok && id.kind == kindString && id.str != "" {
				a.QuestionID = id.str
			}
			if v, ok := it.first("text", "value", "answer"); ok {
				a.Text = flatten(v)
			} else {
				a.Text = render(it)
			}
		case kindNull:
			// keep the slot so positions stay aligned
		default:
			a.Text = it.str
		}
		out = append(out, a)
	}
	return out
}

// providerData digs out the { answer: { data: {...} } } envelope the form
// provider wraps around field values.
func providerData(n node) ([]member, bool) {
	ans, ok := n.lookup("answer")
	if !ok || ans.kind != kindObject {
		return nil, false
	}
	data, ok := ans.lookup("data")
	if !ok || data.kind != kindObject {
		return nil, false
	}
	return data.obj, true
}

func fromProviderData(fields []member) []Answer {
	out := make([]Answer, 0, len(fields))
	for _, f := range fields {
		if f.val.kind != kindObject {
			continue
		}
		v, ok := f.val.lookup("value")
		if !ok || v.kind == kindNull {
			continue
		}
		out = append(out, Answer{QuestionID: f.key, Text: flatten(v)})
	}
	return out
}

// fromFlat treats the object as direct key/value answers, minus envelope
// metadata.
func fromFlat(members []member) []Answer {
	out := make([]Answer, 0, len(members))
	for _, m := range members {
		if envelopeKeys[m.key] {
			continue
		}
		out = append(out, Answer{QuestionID: m.key, Text: flatten(m.val)})
	}
	return out
}

// flatten renders an arbitrary value as display text: lists join on ", "
// (preferring an element's own text property), nested objects serialize to
// JSON, scalars stringify.
func flatten(n node) string {
	switch n.kind {
	case kindString, kindNumber, kindBool:
		return n.str
	case kindNull:
		return ""
	case kindArray:
		parts := make([]string, 0, len(n.arr))
		for _, el := range n.arr {
			if el.kind == kindObject {
				if t, ok := el.lookup("text"); ok && t.kind == kindString {
					parts = append(parts, t.str)
					continue
				}
			}
			parts = append(parts, flatten(el))
		}
		return strings.Join(parts, ", ")
	case kindObject:
		return render(n)
	}
	return ""
}

const (
	kindNull = iota
	kindString
	kindNumber
	kindBool
	kindArray
	kindObject
)

// node is a parsed JSON value with object-member order preserved.
type node struct {
	kind int
	str  string // scalar text: string value, number literal, "true"/"false"
	arr  []node
	obj  []member
}

type member struct {
	key string
	val node
}

func (n node) lookup(key string) (node, bool) {
	for _, m := range n.obj {
		if m.key == key {
			return m.val, true
		}
	}
	return node{}, false
}

func (n node) first(keys ...string) (node, bool) {
	for _, k := range keys {
		if v, ok := n.lookup(k); ok && v.kind != kindNull {
			return v, true
		}
	}
	return node{}, false
}

func parse(raw []byte) (node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	n, err := parseValue(dec)
	if err != nil {
		return node{}, err
	}
	return n, nil
}

func parseValue(dec *json.Decoder) (node, error) {
	tok, err := dec.Token()
	if err != nil {
		return node{}, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (node, error) {
	switch t := tok.(type) {
	case json.Delim:
		if t == '{' {
			return parseObject(dec)
		}
		return parseArray(dec)
	case string:
		return node{kind: kindString, str: t}, nil
	case json.Number:
		return node{kind: kindNumber, str: t.String()}, nil
	case bool:
		return node{kind: kindBool, str: strconv.FormatBool(t)}, nil
	default: // nil
		return node{kind: kindNull}, nil
	}
}

func parseObject(dec *json.Decoder) (node, error) {
	n := node{kind: kindObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return node{}, err
		}
		key, _ := keyTok.(string)
		val, err := parseValue(dec)
		if err != nil {
			return node{}, err
		}
		n.obj = append(n.obj, member{key: key, val: val})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return node{}, err
	}
	return n, nil
}

func parseArray(dec *json.Decoder) (node, error) {
	n := node{kind: kindArray}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return node{}, err
		}
		n.arr = append(n.arr, val)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return node{}, err
	}
	return n, nil
}

// render serializes a node back to compact JSON, keeping member order.
func render(n node) string {
	var b bytes.Buffer
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *bytes.Buffer, n node) {
	switch n.kind {
	case kindNull:
		b.WriteString("null")
	case kindString:
		enc, _ := json.Marshal(n.str)
		b.Write(enc)
	case kindNumber, kindBool:
		b.WriteString(n.str)
	case kindArray:
		b.WriteByte('[')
		for i, el := range n.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNode(b, el)
		}
		b.WriteByte(']')
	case kindObject:
		b.WriteByte('{')
		for i, m := range n.obj {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(m.key)
			b.Write(key)
			b.WriteByte(':')
			writeNode(b, m.val)
		}
		b.WriteByte('}')
	}
}
