package compile

import (
	"context"
	"log/slog"

	"github.com/ardnew/runmd/attr"
	"github.com/ardnew/runmd/lang"
	"github.com/ardnew/runmd/log"
	"github.com/ardnew/runmd/pkg"
	"github.com/ardnew/runmd/store"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry sets the attribute type registry used to parse values.
func WithRegistry(r *attr.Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// WithLoader sets the extension loader. Without one, extensions resolve
// immediately with no side effects.
func WithLoader(l ExtensionLoader) Option {
	return func(c *Compiler) { c.loader = l }
}

// WithProvider sets the node provider consulted for a handler on every
// node the pass adds.
func WithProvider(p NodeProvider) Option {
	return func(c *Compiler) { c.provider = p }
}

// WithHost sets the host scope compiled resources are published to.
func WithHost(h *store.Host) Option {
	return func(c *Compiler) { c.host = h }
}

// WithLogger sets the logger used for compile tracing.
func WithLogger(l log.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// Compiler compiles parsed documents into addressed resources.
type Compiler struct {
	registry *attr.Registry
	loader   ExtensionLoader
	provider NodeProvider
	host     *store.Host
	logger   log.Logger
}

// New creates a Compiler with the fixed primitive type catalog and a fresh
// host scope. Both can be replaced with options.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		registry: attr.NewRegistry(),
		host:     store.NewHost(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Host returns the scope compiled resources are published to.
func (c *Compiler) Host() *store.Host { return c.host }

// Compile compiles every block of a document. Entity ids are monotonic
// within one call; root blocks always receive entity 0. Failures isolate
// the node or property that caused them and are collected in the result.
func (c *Compiler) Compile(
	ctx context.Context,
	doc *lang.Document,
) (*Result, error) {
	p := &pass{
		c:         c,
		entity:    1,
		controls:  make(map[string][]Property),
		transient: store.NewTransient(),
		result:    &Result{},
	}

	for _, blk := range doc.Blocks {
		compiled, err := p.block(ctx, blk)
		if err != nil {
			return nil, err
		}

		p.result.Blocks = append(p.result.Blocks, compiled)
	}

	c.logger.TraceContext(ctx, "compile complete",
		slog.Int("blocks", len(p.result.Blocks)),
		slog.Int("errors", len(p.result.Errors)),
	)

	return p.result, nil
}

// pass holds the state of one Compile call.
type pass struct {
	c         *Compiler
	entity    uint32
	controls  map[string][]Property
	transient *store.Transient
	result    *Result
}

func (p *pass) next() uint32 {
	id := p.entity
	p.entity++

	return id
}

// loadResult carries one extension load's outcome across its goroutine.
type loadResult struct {
	res Resource
	err error
}

// pending tracks one in-flight extension load and the property definitions
// queued against it while unresolved.
type pending struct {
	ext    *Extension
	done   chan loadResult
	queued []lang.Instruction
}

// nodeState pairs a node under construction with its handler and pending
// extensions.
type nodeState struct {
	node    *Node
	handler NodeHandler
	pending []*pending
}

// block compiles one fenced section. The returned error is reserved for
// context cancellation; compile failures are collected in the pass result.
func (p *pass) block(ctx context.Context, blk *lang.Block) (*Block, error) {
	out := &Block{
		Kind:   blk.Kind(),
		Idents: blk.Idents,
	}

	if out.Kind == lang.KindRootBlock {
		out.Entity = 0
	} else {
		out.Entity = p.next()
	}

	inherited := p.controls[out.ControlSymbol()]
	if out.Kind == lang.KindControlBlock {
		inherited = nil
	}

	var (
		states []*nodeState
		cur    *nodeState
	)

	for _, in := range blk.Instructions {
		switch in.Op {
		case lang.OpAddNode:
			cur = p.addNode(ctx, in, inherited)
			states = append(states, cur)

		case lang.OpDefineProperty:
			if cur == nil {
				continue
			}

			p.defineProperty(ctx, cur, in)

		case lang.OpLoadExtension:
			if cur == nil {
				continue
			}

			p.loadExtension(ctx, cur, in)

		default:
		}
	}

	// Block end: settle extensions and notify in source order.
	for _, st := range states {
		if err := p.settle(ctx, st); err != nil {
			return nil, err
		}
	}

	for _, st := range states {
		if st.node == nil {
			continue // extension load failure isolated this node
		}

		out.Nodes = append(out.Nodes, st.node)

		if st.handler != nil {
			if err := st.handler.CompletedNode(ctx, st.node); err != nil {
				p.fail(ErrProvider.Wrap(err).With(
					slog.String("node", st.node.Name),
				))
			}
		}
	}

	if out.Kind == lang.KindControlBlock {
		p.register(out)
	}

	p.transient.Reset()

	return out, nil
}

// addNode materializes a node, acquires its handler, and seeds it with any
// properties inherited from a matching control block.
func (p *pass) addNode(
	ctx context.Context,
	in lang.Instruction,
	inherited []Property,
) *nodeState {
	node := &Node{
		Entity: p.next(),
		Name:   in.Name,
		Tag:    in.Tag,
		Doc:    in.Doc,
		Scope:  store.NewNode(),
	}

	value, err := p.value(in)
	if err != nil {
		p.fail(ErrValue.Wrap(err).With(slog.String("node", in.Name)))

		value = attr.Empty()
	}

	node.Value = value

	st := &nodeState{node: node}

	if p.c.provider != nil {
		handler, err := p.c.provider.ProvideNode(ctx, node)
		if err != nil {
			p.fail(ErrProvider.Wrap(err).With(slog.String("node", in.Name)))
		} else {
			st.handler = handler
		}
	}

	for _, prop := range inherited {
		prop.Owner = node.Name
		p.attach(ctx, st, prop)
	}

	p.publish(node, Property{Owner: "", Name: node.Name, Value: value})

	return st
}

// defineProperty compiles a property definition, or queues it when its
// owner is an extension that has not resolved yet.
func (p *pass) defineProperty(
	ctx context.Context,
	st *nodeState,
	in lang.Instruction,
) {
	if pend := p.owningPending(st, in.Owner); pend != nil {
		// Stash the compiled value so the pass can be replayed cheaply
		// when the load completes.
		if v, err := p.value(in); err == nil {
			key := store.KeyOf(in.Owner+"."+in.Name, v.Type)
			_ = p.transient.Put(key, v)
		}

		pend.queued = append(pend.queued, in)
		p.c.logger.TraceContext(ctx, "property queued",
			slog.String("owner", in.Owner),
			slog.String("name", in.Name),
		)

		return
	}

	prop, err := p.property(in)
	if err != nil {
		p.fail(ErrValue.Wrap(err).With(
			slog.String("owner", in.Owner),
			slog.String("name", in.Name),
		))

		return
	}

	p.attach(ctx, st, prop)
}

// loadExtension records an extension and starts its load.
func (p *pass) loadExtension(
	ctx context.Context,
	st *nodeState,
	in lang.Instruction,
) {
	ext := &Extension{
		Address: in.Name,
		Input:   in.Value,
		Doc:     in.Doc,
	}

	pend := &pending{ext: ext, done: make(chan loadResult, 1)}
	st.pending = append(st.pending, pend)

	if p.c.loader == nil {
		pend.done <- loadResult{}

		return
	}

	go func() {
		res, err := p.c.loader.Load(ctx, ext.Address, ext.Input)
		pend.done <- loadResult{res: res, err: err}
	}()
}

// settle awaits a node's extension loads in source order. Each resolved
// extension binds its resource into the node's scope, reports its result to
// the handler, and drains the property definitions queued against it. A
// failed load or bind discards the node.
func (p *pass) settle(ctx context.Context, st *nodeState) error {
	for _, pend := range st.pending {
		var lr loadResult

		select {
		case lr = <-pend.done:
		case <-ctx.Done():
			return pkg.WrapError(ctx.Err())
		}

		if lr.err == nil && lr.res != nil {
			pend.ext.Resource = lr.res
			lr.err = lr.res.Bind(st.node.Scope)
		}

		if st.handler != nil {
			if herr := st.handler.LoadedExtension(ctx, pend.ext, lr.err); herr != nil {
				p.fail(ErrProvider.Wrap(herr).With(
					slog.String("node", st.node.Name),
					slog.String("address", pend.ext.Address),
				))
			}
		}

		if lr.err != nil {
			p.fail(ErrExtensionLoad.Wrap(lr.err).With(
				slog.String("node", st.node.Name),
				slog.String("address", pend.ext.Address),
			))

			st.node = nil

			return nil
		}

		for _, in := range pend.queued {
			prop, perr := p.property(in)
			if perr != nil {
				p.fail(ErrValue.Wrap(perr).With(
					slog.String("owner", in.Owner),
					slog.String("name", in.Name),
				))

				continue
			}

			pend.ext.Properties = appendProperty(pend.ext.Properties, prop)
			p.publish(st.node, prop)
			p.observe(ctx, st, prop)
		}

		st.node.Extensions = append(st.node.Extensions, pend.ext)
	}

	return nil
}

// attach adds a property to a node, publishes it to storage, and reports
// it to the node's handler.
func (p *pass) attach(ctx context.Context, st *nodeState, prop Property) {
	st.node.Properties = appendProperty(st.node.Properties, prop)
	p.publish(st.node, prop)
	p.observe(ctx, st, prop)
}

// observe delivers one attached property to the node's handler.
func (p *pass) observe(ctx context.Context, st *nodeState, prop Property) {
	if st.handler == nil {
		return
	}

	if err := st.handler.DefinedProperty(ctx, prop); err != nil {
		p.fail(ErrProvider.Wrap(err).With(
			slog.String("node", st.node.Name),
			slog.String("property", prop.Path()),
		))
	}
}

// publish writes a property into the node's scope and the host scope.
func (p *pass) publish(node *Node, prop Property) {
	key := store.KeyOf(prop.Path(), prop.Value.Type)

	_ = node.Scope.Put(key, prop.Value)

	if p.c.host != nil {
		_ = p.c.host.Put(key, prop.Value)
	}
}

// register records a control block's properties for inheritance by named
// blocks sharing its identifier.
func (p *pass) register(blk *Block) {
	sym := blk.ControlSymbol()

	for _, node := range blk.Nodes {
		p.controls[sym] = append(p.controls[sym], node.Properties...)
	}
}

// property compiles one property definition.
func (p *pass) property(in lang.Instruction) (Property, error) {
	value, err := p.value(in)
	if err != nil {
		return Property{}, err
	}

	return Property{
		Owner: in.Owner,
		Name:  in.Name,
		Value: value,
		Doc:   in.Doc,
	}, nil
}

// value parses an instruction's value text. An explicit type tag governs;
// otherwise a single identity-shaped token is a symbol and anything else
// is text.
func (p *pass) value(in lang.Instruction) (attr.Value, error) {
	if in.TypeTag != "" {
		return p.c.registry.Parse(in.TypeTag, in.Value)
	}

	switch {
	case in.Value == "":
		return attr.Empty(), nil
	case lang.ValidIdentity(in.Value):
		return attr.NewSymbol(in.Value), nil
	default:
		return attr.NewText(in.Value), nil
	}
}

func (p *pass) fail(err error) {
	p.result.Errors = append(p.result.Errors, err)
}

// owningPending returns the unresolved extension owning the given path,
// if any.
func (p *pass) owningPending(st *nodeState, owner string) *pending {
	for i := len(st.pending) - 1; i >= 0; i-- {
		if st.pending[i].ext.Address == owner {
			return st.pending[i]
		}
	}

	return nil
}

// appendProperty appends with last-write-wins on duplicate names under the
// same owner: the value replaces in place, keeping the original position.
func appendProperty(props []Property, prop Property) []Property {
	for i := range props {
		if props[i].Owner == prop.Owner && props[i].Name == prop.Name {
			props[i].Value = prop.Value
			props[i].Doc = prop.Doc

			return props
		}
	}

	return append(props, prop)
}
