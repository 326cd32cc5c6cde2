package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/toyz/annotate/internal/utils"
	"github.com/toyz/annotate/pkg/annotations"
)

// Descriptors converts the declared types into registry descriptors. Every
// type produces *annotations.Record objects.
func (c *Config) Descriptors() ([]annotations.Descriptor, error) {
	descriptors := make([]annotations.Descriptor, 0, len(c.Types))
	for _, t := range c.Types {
		d, err := t.descriptor()
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// BuildRegistry creates a registry holding every declared type
func (c *Config) BuildRegistry() (*annotations.Registry, error) {
	descriptors, err := c.Descriptors()
	if err != nil {
		return nil, err
	}

	registry := annotations.NewRegistry()
	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			return nil, utils.WrapRegisterError(fmt.Sprintf("annotation type %s", d.Name), err)
		}
	}
	return registry, nil
}

func (t TypeConfig) descriptor() (annotations.Descriptor, error) {
	var d annotations.Descriptor

	switch t.ResolvedStrategy() {
	case StrategyConstructor:
		params := make([]annotations.Parameter, len(t.Params))
		for i, p := range t.Params {
			if p.Default == nil {
				params[i] = annotations.Required(p.Name)
				continue
			}
			def, err := nodeValue(p.Default)
			if err != nil {
				return d, fmt.Errorf("default of %s.%s: %w", t.Name, p.Name, err)
			}
			params[i] = annotations.Optional(p.Name, def)
		}
		d = annotations.ConstructorRecordDescriptor(t.Name, params...)
	case StrategyFields:
		d = annotations.FieldRecordDescriptor(t.Name, t.Fields...)
	default:
		d = annotations.RecordDescriptor(t.Name)
	}

	d.Description = t.Description
	return d, nil
}

// nodeValue converts a YAML default into an annotation value. Sequences
// become positional lists and mappings keyed lists, in document order.
func nodeValue(n *yaml.Node) (annotations.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return nodeValue(n.Alias)

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return annotations.Value{}, err
			}
			return annotations.Bool(b), nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return annotations.Value{}, err
			}
			return annotations.Number(f), nil
		case "!!null":
			return annotations.Value{}, fmt.Errorf("null is not a value, omit the default instead")
		default:
			return annotations.String(n.Value), nil
		}

	case yaml.SequenceNode:
		list := annotations.NewList()
		for _, item := range n.Content {
			v, err := nodeValue(item)
			if err != nil {
				return annotations.Value{}, err
			}
			list.Append(v)
		}
		return annotations.ListOf(list), nil

	case yaml.MappingNode:
		list := annotations.NewList()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return annotations.Value{}, err
			}
			list.Set(n.Content[i].Value, v)
		}
		return annotations.ListOf(list), nil

	default:
		return annotations.Value{}, fmt.Errorf("unsupported YAML node at line %d", n.Line)
	}
}
