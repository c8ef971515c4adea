package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/runmd/compile"
)

// Exportable views of compiled resources. Values export through
// [attr.Value.Native] so scalars stay scalars in the output.
type (
	documentView struct {
		Blocks []blockView `yaml:"blocks"`
	}

	blockView struct {
		Kind   string     `yaml:"kind"`
		Idents []string   `yaml:"idents,omitempty"`
		Entity uint32     `yaml:"entity"`
		Nodes  []nodeView `yaml:"nodes,omitempty"`
	}

	nodeView struct {
		Entity     uint32          `yaml:"entity"`
		Name       string          `yaml:"name"`
		Tag        string          `yaml:"tag,omitempty"`
		Value      any             `yaml:"value,omitempty"`
		Properties []propertyView  `yaml:"properties,omitempty"`
		Extensions []extensionView `yaml:"extensions,omitempty"`
	}

	propertyView struct {
		Name  string `yaml:"name"`
		Type  string `yaml:"type"`
		Value any    `yaml:"value,omitempty"`
	}

	extensionView struct {
		Address    string         `yaml:"address"`
		Input      string         `yaml:"input,omitempty"`
		Properties []propertyView `yaml:"properties,omitempty"`
	}
)

func viewBlocks(blocks []*compile.Block) documentView {
	doc := documentView{Blocks: make([]blockView, 0, len(blocks))}

	for _, block := range blocks {
		bv := blockView{
			Kind:   block.Kind.String(),
			Idents: block.Idents,
			Entity: block.Entity,
		}

		for _, node := range block.Nodes {
			bv.Nodes = append(bv.Nodes, viewNode(node))
		}

		doc.Blocks = append(doc.Blocks, bv)
	}

	return doc
}

func viewNode(node *compile.Node) nodeView {
	nv := nodeView{
		Entity: node.Entity,
		Name:   node.Name,
		Tag:    node.Tag,
		Value:  node.Value.Native(),
	}

	for _, prop := range node.Properties {
		nv.Properties = append(nv.Properties, viewProperty(prop))
	}

	for _, ext := range node.Extensions {
		ev := extensionView{Address: ext.Address, Input: ext.Input}

		for _, prop := range ext.Properties {
			ev.Properties = append(ev.Properties, viewProperty(prop))
		}

		nv.Extensions = append(nv.Extensions, ev)
	}

	return nv
}

func viewProperty(prop compile.Property) propertyView {
	return propertyView{
		Name:  prop.Name,
		Type:  prop.Value.Type.String(),
		Value: prop.Value.Native(),
	}
}

// writeYAML marshals a view to the writer.
func writeYAML(ctx context.Context, w io.Writer, v any, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, v, opts...)
	if err != nil {
		return ErrYAML.Wrap(err)
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
