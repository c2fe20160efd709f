package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

func fieldComment(f reflect.StructField) string {
	comment := f.Tag.Get("comment")

	if f.Tag.Get("required") == "false" {
		comment += " (optional)"
	}

	if envName := f.Tag.Get("env"); envName != "" {
		comment += " [env " + envName + "]"
	}

	comment = strings.TrimSpace(comment)

	if comment == "" {
		return ""
	}

	return "# " + comment
}

// valueNode turns the default tag of f into a yaml node, recursing into structs
func valueNode(f reflect.StructField) *yaml.Node {
	def := f.Tag.Get("default")

	switch f.Type.Kind() {
	case reflect.Struct:
		return structNode(f.Type)
	case reflect.Slice:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

		if def == "" {
			seq.Style = yaml.FlowStyle
			return seq
		}

		for _, v := range strings.Split(def, ",") {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strings.TrimSpace(v)})
		}

		return seq
	case reflect.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: def, Style: yaml.DoubleQuotedStyle}
	case reflect.Int, reflect.Int64:
		if def == "" {
			def = "0"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: def}
	case reflect.Bool:
		if def == "" {
			def = "false"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: def}
	}

	panic(fmt.Sprintf("genconfig: unsupported kind %s for %s", f.Type.Kind(), f.Name))
}

func structNode(t reflect.Type) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, f := range reflect.VisibleFields(t) {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Tag.Get("yaml")}
		val := valueNode(f)

		// mappings and block sequences start on the next line, so the comment goes above the key
		if val.Kind == yaml.MappingNode || (val.Kind == yaml.SequenceNode && len(val.Content) > 0) {
			key.HeadComment = fieldComment(f)
		} else {
			val.LineComment = fieldComment(f)
		}

		m.Content = append(m.Content, key, val)
	}

	return m
}

// GenSample writes a sample config built from the struct tags of Config
func GenSample(w io.Writer) error {
	doc := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{structNode(reflect.TypeOf(Config{}))},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return err
	}

	return enc.Close()
}

// GenConfig (re)creates config.yaml.sample in the working directory
func GenConfig() error {
	f, err := os.Create("config.yaml.sample")

	if err != nil {
		return err
	}

	defer f.Close()

	return GenSample(f)
}
