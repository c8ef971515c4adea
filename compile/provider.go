package compile

import (
	"context"

	"github.com/ardnew/runmd/attr"
	"github.com/ardnew/runmd/lang"
	"github.com/ardnew/runmd/store"
)

// Resource is a value produced by an extension load. On success the
// compiler binds it into the parent node's scope, so the loaded value and
// the node share storage.
type Resource interface {
	Bind(scope *store.Node) error
}

// ExtensionLoader resolves extension addresses for a compile pass. Load may
// block; the compiler invokes it on its own goroutine and observes ctx for
// cancellation. A nil error marks the extension resolved: the returned
// resource (which may be nil) is bound and recorded on the Extension, and
// the extension's queued properties are drained in source order.
type ExtensionLoader interface {
	Load(ctx context.Context, addr, input string) (Resource, error)
}

// NodeProvider supplies a handler for each node added during a compile
// pass. A nil handler leaves the node unobserved.
type NodeProvider interface {
	ProvideNode(ctx context.Context, node *Node) (NodeHandler, error)
}

// NodeHandler observes one node across its lifetime: every property as it
// attaches (including those drained after an asynchronous extension load),
// every extension result, and finally the completed node at block end, in
// source order. Nodes whose extension loads failed never complete.
type NodeHandler interface {
	DefinedProperty(ctx context.Context, prop Property) error
	LoadedExtension(ctx context.Context, ext *Extension, loadErr error) error
	CompletedNode(ctx context.Context, node *Node) error
}

// LoaderFunc adapts a function to the ExtensionLoader interface.
type LoaderFunc func(ctx context.Context, addr, input string) (Resource, error)

func (f LoaderFunc) Load(ctx context.Context, addr, input string) (Resource, error) {
	return f(ctx, addr, input)
}

// ProviderFunc adapts a completion callback to the NodeProvider interface.
// The handler it supplies ignores property and extension events.
type ProviderFunc func(ctx context.Context, node *Node) error

func (f ProviderFunc) ProvideNode(context.Context, *Node) (NodeHandler, error) {
	return completedFunc(f), nil
}

type completedFunc func(ctx context.Context, node *Node) error

func (completedFunc) DefinedProperty(context.Context, Property) error { return nil }

func (completedFunc) LoadedExtension(context.Context, *Extension, error) error {
	return nil
}

func (f completedFunc) CompletedNode(ctx context.Context, node *Node) error {
	return f(ctx, node)
}

// Property is one compiled attribute on a node or extension.
type Property struct {
	Owner string
	Name  string
	Value attr.Value
	Doc   []string
}

// Path returns the property's full dotted address.
func (p Property) Path() string {
	if p.Owner == "" {
		return p.Name
	}

	return p.Owner + "." + p.Name
}

// Extension is one extension loaded under a node. Resource holds the value
// the loader returned, already bound into the parent node's scope.
type Extension struct {
	Address    string
	Input      string
	Doc        []string
	Properties []Property
	Resource   Resource
}

// Node is one compiled node: its own value, its properties and extensions
// in source order, and its private storage scope.
type Node struct {
	Entity     uint32
	Name       string
	Tag        string
	Value      attr.Value
	Doc        []string
	Properties []Property
	Extensions []*Extension
	Scope      *store.Node
}

// Property returns the node's property with the given name, searching the
// node's own properties and then its extensions.
func (n *Node) Property(name string) (Property, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}

	for _, ext := range n.Extensions {
		for _, p := range ext.Properties {
			if p.Name == name {
				return p, true
			}
		}
	}

	return Property{}, false
}

// Block is the compiled form of one fenced section.
type Block struct {
	Kind   lang.BlockKind
	Idents []string
	Entity uint32
	Nodes  []*Node
}

// Name returns the block's first identifier, or "" for a root block.
func (b *Block) Name() string {
	if len(b.Idents) > 0 {
		return b.Idents[0]
	}

	return ""
}

// ControlSymbol returns the identifier binding this block to a control
// block, or "" for a root block.
func (b *Block) ControlSymbol() string {
	switch b.Kind {
	case lang.KindControlBlock:
		return b.Idents[0]
	case lang.KindNamedBlock:
		return b.Idents[1]
	default:
		return ""
	}
}

// Result is the outcome of compiling one document: every block that
// compiled, plus per-node errors from failures that were isolated.
type Result struct {
	Blocks []*Block
	Errors []error
}
