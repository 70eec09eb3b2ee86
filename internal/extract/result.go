package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Field is one attribute name with its extracted values, possibly empty.
type Field struct {
	Name   string
	Values []string
}

// Instance is one stage-one value with its stage-two fields.
type Instance struct {
	Value  string
	Fields []Field
}

// Group collects the instances extracted for one top-level schema key.
type Group struct {
	Key       string
	Instances []Instance
}

// Result is the assembled output of one extraction. Exactly one of Fields
// (flat schemas) or Groups (cascaded schemas) is populated. Field and group
// order mirrors schema order; it survives JSON and YAML rendering, which is
// why the maps are rendered by hand instead of through Go maps.
type Result struct {
	Fields []Field
	Groups []Group
}

// MarshalJSON renders flat results as {"name": [...]} and cascaded results
// as {"key": [{"value": ..., "attr": [...]}]}, preserving emission order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeKey := func(name string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		return nil
	}

	for _, f := range r.Fields {
		if err := writeKey(f.Name); err != nil {
			return nil, err
		}
		if err := writeStrings(&buf, f.Values); err != nil {
			return nil, err
		}
	}

	for _, g := range r.Groups {
		if err := writeKey(g.Key); err != nil {
			return nil, err
		}
		buf.WriteByte('[')
		for i, inst := range g.Instances {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeInstance(&buf, inst); err != nil {
				return nil, err
			}
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeInstance(buf *bytes.Buffer, inst Instance) error {
	buf.WriteString(`{"value":`)
	value, err := json.Marshal(inst.Value)
	if err != nil {
		return err
	}
	buf.Write(value)
	for _, f := range inst.Fields {
		buf.WriteByte(',')
		name, err := json.Marshal(f.Name)
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if err := writeStrings(buf, f.Values); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeStrings(buf *bytes.Buffer, values []string) error {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// MarshalYAML renders the same shape as MarshalJSON, using an explicit
// mapping node to keep key order.
func (r *Result) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, f := range r.Fields {
		root.Content = append(root.Content, scalarNode(f.Name), sequenceNode(f.Values))
	}
	for _, g := range r.Groups {
		instances := &yaml.Node{Kind: yaml.SequenceNode}
		for _, inst := range g.Instances {
			m := &yaml.Node{Kind: yaml.MappingNode}
			m.Content = append(m.Content, scalarNode("value"), scalarNode(inst.Value))
			for _, f := range inst.Fields {
				m.Content = append(m.Content, scalarNode(f.Name), sequenceNode(f.Values))
			}
			instances.Content = append(instances.Content, m)
		}
		root.Content = append(root.Content, scalarNode(g.Key), instances)
	}
	return root, nil
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func sequenceNode(values []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		seq.Content = append(seq.Content, scalarNode(v))
	}
	return seq
}

// String renders the result as compact JSON, for logs.
func (r *Result) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("result marshal error: %v", err)
	}
	return string(data)
}
