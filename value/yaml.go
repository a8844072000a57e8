package value

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements yaml.Unmarshaler by walking the raw *yaml.Node,
// the same idiom the teacher uses for Step/IncludeDecl: branch on node.Kind
// rather than decoding into interface{}, so object key order survives.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	val, err := nodeToValue(node)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func nodeToValue(node *yaml.Node) (Value, error) {
	// yaml.v3 wraps top-level documents in a DocumentNode; unwrap it.
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return nodeToValue(node.Content[0])
	}

	switch node.Kind {
	case yaml.ScalarNode:
		return scalarNodeToValue(node), nil
	case yaml.SequenceNode:
		items := make([]Value, len(node.Content))
		for i, c := range node.Content {
			v, err := nodeToValue(c)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items), nil
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			v, err := nodeToValue(valNode)
			if err != nil {
				return Value{}, err
			}
			obj.Set(keyNode.Value, v)
		}
		return FromObject(obj), nil
	case yaml.AliasNode:
		return nodeToValue(node.Alias)
	default:
		return Value{}, fmt.Errorf("value: unsupported yaml node kind %v", node.Kind)
	}
}

func scalarNodeToValue(node *yaml.Node) Value {
	switch node.Tag {
	case "!!null":
		return Null()
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return String(node.Value)
		}
		return Bool(b)
	case "!!int":
		i, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return String(node.Value)
		}
		return Int(i)
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return String(node.Value)
		}
		return Float(f)
	default:
		return String(node.Value)
	}
}

// MarshalYAML implements yaml.Marshaler, re-expressing a Value as a plain
// tree yaml.v3 already knows how to encode in order (yaml.MapSlice isn't
// used upstream; ordered maps are expressed as a slice of yaml.Node pairs).
func (v Value) MarshalYAML() (interface{}, error) {
	return valueToNode(v)
}

func valueToNode(v Value) (*yaml.Node, error) {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}, nil
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}, nil
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.f, 'g', -1, 64)}, nil
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}, nil
	case KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.arr {
			cn, err := valueToNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, cn)
		}
		return n, nil
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if v.obj != nil {
			for _, k := range v.obj.Keys() {
				val, _ := v.obj.Get(k)
				kn := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
				vn, err := valueToNode(val)
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, kn, vn)
			}
		}
		return n, nil
	default:
		return nil, fmt.Errorf("value: unknown kind %v", v.kind)
	}
}
