package compile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardnew/runmd/attr"
	"github.com/ardnew/runmd/lang"
	"github.com/ardnew/runmd/store"
)

func parse(t *testing.T, source string) *lang.Document {
	t.Helper()

	doc, err := lang.ParseString(context.Background(), source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(doc.Errors) != 0 {
		t.Fatalf("parse errors: %v", doc.Errors)
	}

	return doc
}

func TestCompile_Basic(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .example\n"+
		": .property Hello World\n"+
		"```\n")

	c := New()

	res, err := c.Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	if len(res.Blocks) != 1 || len(res.Blocks[0].Nodes) != 1 {
		t.Fatalf("expected 1 block with 1 node, got %+v", res.Blocks)
	}

	node := res.Blocks[0].Nodes[0]
	if node.Name != "example" {
		t.Errorf("expected node example, got %q", node.Name)
	}

	prop, ok := node.Property("property")
	if !ok {
		t.Fatal("expected property to exist")
	}

	if prop.Value.Type != attr.TypeText || prop.Value.Str != "Hello World" {
		t.Errorf("unexpected property value: %v", prop.Value)
	}

	// Published to the host scope under its full path.
	key := store.KeyOf("example.property", attr.TypeText)

	got, err := c.Host().Get(key)
	if err != nil {
		t.Fatalf("host get: %v", err)
	}

	if got.Str != "Hello World" {
		t.Errorf("expected host value %q, got %q", "Hello World", got.Str)
	}
}

func TestCompile_EntityIDs(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .first\n"+
		"+ .second\n"+
		"```\n"+
		"```runmd app\n"+
		"+ .third\n"+
		"```\n")

	res, err := New().Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	root := res.Blocks[0]
	if root.Entity != 0 {
		t.Errorf("root block must be entity 0, got %d", root.Entity)
	}

	if root.Nodes[0].Entity != 1 || root.Nodes[1].Entity != 2 {
		t.Errorf("expected node entities 1,2, got %d,%d",
			root.Nodes[0].Entity, root.Nodes[1].Entity)
	}

	control := res.Blocks[1]
	if control.Entity != 3 || control.Nodes[0].Entity != 4 {
		t.Errorf("expected entities 3,4, got %d,%d",
			control.Entity, control.Nodes[0].Entity)
	}
}

func TestCompile_TypedValues(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .settings\n"+
		": count .int 42\n"+
		": scale .float_pair 1.5, 2.5\n"+
		": label .symbol primary\n"+
		"```\n")

	res, err := New().Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	node := res.Blocks[0].Nodes[0]

	count, _ := node.Property("count")
	if count.Value.Type != attr.TypeInt || count.Value.Int[0] != 42 {
		t.Errorf("unexpected count: %v", count.Value)
	}

	scale, _ := node.Property("scale")
	if scale.Value.Type != attr.TypeFloatPair ||
		scale.Value.Float[0] != 1.5 || scale.Value.Float[1] != 2.5 {
		t.Errorf("unexpected scale: %v", scale.Value)
	}

	label, _ := node.Property("label")
	if label.Value.Type != attr.TypeSymbol || label.Value.Str != "primary" {
		t.Errorf("unexpected label: %v", label.Value)
	}
}

func TestCompile_ValueInference(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .node\n"+
		": .ident app/example.ext\n"+
		": .prose two words\n"+
		": .blank\n"+
		"```\n")

	res, err := New().Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	node := res.Blocks[0].Nodes[0]

	ident, _ := node.Property("ident")
	if ident.Value.Type != attr.TypeSymbol {
		t.Errorf("identity-shaped value must infer symbol, got %v",
			ident.Value.Type)
	}

	prose, _ := node.Property("prose")
	if prose.Value.Type != attr.TypeText {
		t.Errorf("spaced value must infer text, got %v", prose.Value.Type)
	}

	blank, _ := node.Property("blank")
	if blank.Value.Type != attr.TypeEmpty {
		t.Errorf("missing value must infer empty, got %v", blank.Value.Type)
	}
}

func TestCompile_ControlInheritance(t *testing.T) {
	doc := parse(t, "```runmd app\n"+
		"+ .defaults\n"+
		": .host localhost\n"+
		": count .int 3\n"+
		"```\n"+
		"```runmd example app\n"+
		"+ .service\n"+
		": count .int 9\n"+
		"```\n")

	res, err := New().Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	node := res.Blocks[1].Nodes[0]

	// Inherited from the control block, re-owned by the node.
	host, ok := node.Property("host")
	if !ok {
		t.Fatal("expected inherited property host")
	}

	if host.Owner != "service" || host.Value.Str != "localhost" {
		t.Errorf("unexpected inherited property: %+v", host)
	}

	// The block's own definition overrides the inherited one.
	count, _ := node.Property("count")
	if count.Value.Int[0] != 9 {
		t.Errorf("expected override 9, got %d", count.Value.Int[0])
	}
}

func TestCompile_ExtensionQueue(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .node\n"+
		"<app/example.ext> input\n"+
		": .first one\n"+
		": .second two\n"+
		"```\n")

	release := make(chan struct{})
	loader := LoaderFunc(func(context.Context, string, string) (Resource, error) {
		<-release

		return nil, nil
	})

	var notified []string

	provider := ProviderFunc(func(_ context.Context, n *Node) error {
		notified = append(notified, n.Name)

		return nil
	})

	c := New(WithLoader(loader), WithProvider(provider))

	// Release the load shortly after compile begins awaiting it.
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	res, err := c.Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	node := res.Blocks[0].Nodes[0]
	if len(node.Extensions) != 1 {
		t.Fatalf("expected 1 extension, got %d", len(node.Extensions))
	}

	ext := node.Extensions[0]
	if ext.Address != "app/example.ext" || ext.Input != "input" {
		t.Errorf("unexpected extension: %+v", ext)
	}

	// Queued definitions drain in source order.
	if len(ext.Properties) != 2 ||
		ext.Properties[0].Name != "first" ||
		ext.Properties[1].Name != "second" {
		t.Errorf("unexpected drained properties: %+v", ext.Properties)
	}

	if len(notified) != 1 || notified[0] != "node" {
		t.Errorf("expected node notification, got %v", notified)
	}
}

func TestCompile_ExtensionFailureIsolatesNode(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .doomed\n"+
		"<app/broken.ext>\n"+
		"+ .survivor\n"+
		": .ok yes\n"+
		"```\n")

	loader := LoaderFunc(func(_ context.Context, addr, _ string) (Resource, error) {
		if addr == "app/broken.ext" {
			return nil, errors.New("no such extension")
		}

		return nil, nil
	})

	var notified []string

	provider := ProviderFunc(func(_ context.Context, n *Node) error {
		notified = append(notified, n.Name)

		return nil
	})

	res, err := New(
		WithLoader(loader),
		WithProvider(provider),
	).Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrExtensionLoad) {
		t.Fatalf("expected extension load error, got %v", res.Errors)
	}

	if len(res.Blocks[0].Nodes) != 1 ||
		res.Blocks[0].Nodes[0].Name != "survivor" {
		t.Errorf("expected only survivor node, got %+v", res.Blocks[0].Nodes)
	}

	if len(notified) != 1 || notified[0] != "survivor" {
		t.Errorf("expected survivor notification only, got %v", notified)
	}
}

func TestCompile_NotificationOrder(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .alpha\n"+
		"<ext.slow>\n"+
		"+ .beta\n"+
		"<ext.fast>\n"+
		"```\n")

	loader := LoaderFunc(func(_ context.Context, addr, _ string) (Resource, error) {
		if addr == "ext.slow" {
			time.Sleep(20 * time.Millisecond)
		}

		return nil, nil
	})

	var notified []string

	provider := ProviderFunc(func(_ context.Context, n *Node) error {
		notified = append(notified, n.Name)

		return nil
	})

	_, err := New(
		WithLoader(loader),
		WithProvider(provider),
	).Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	// Source order regardless of load completion order.
	if len(notified) != 2 || notified[0] != "alpha" || notified[1] != "beta" {
		t.Errorf("expected source-order notification, got %v", notified)
	}
}

func TestCompile_LastWriteWins(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .node\n"+
		": .mode slow\n"+
		": .mode fast\n"+
		"```\n")

	res, err := New().Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	node := res.Blocks[0].Nodes[0]

	if len(node.Properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(node.Properties))
	}

	if node.Properties[0].Value.Str != "fast" {
		t.Errorf("expected last write fast, got %q",
			node.Properties[0].Value.Str)
	}
}

func TestCompile_ValueErrorIsolated(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .node\n"+
		": bad .int not-a-number\n"+
		": .good yes\n"+
		"```\n")

	res, err := New().Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrValue) {
		t.Fatalf("expected value error, got %v", res.Errors)
	}

	node := res.Blocks[0].Nodes[0]

	if _, ok := node.Property("bad"); ok {
		t.Error("failed property must not attach")
	}

	if _, ok := node.Property("good"); !ok {
		t.Error("following property must still attach")
	}
}

// lifecycleProvider issues a handler per node, recording every event in
// arrival order.
type lifecycleProvider struct{ events *[]string }

func (p lifecycleProvider) ProvideNode(_ context.Context, node *Node) (NodeHandler, error) {
	*p.events = append(*p.events, "node "+node.Name)

	return lifecycleHandler(p), nil
}

type lifecycleHandler struct{ events *[]string }

func (h lifecycleHandler) DefinedProperty(_ context.Context, prop Property) error {
	*h.events = append(*h.events, "prop "+prop.Name)

	return nil
}

func (h lifecycleHandler) LoadedExtension(_ context.Context, ext *Extension, err error) error {
	if err != nil {
		*h.events = append(*h.events, "fail "+ext.Address)

		return nil
	}

	*h.events = append(*h.events, "ext "+ext.Address)

	return nil
}

func (h lifecycleHandler) CompletedNode(_ context.Context, node *Node) error {
	*h.events = append(*h.events, "done "+node.Name)

	return nil
}

// symbolResource binds a marker symbol into the parent node's scope.
type symbolResource string

func (r symbolResource) Bind(scope *store.Node) error {
	return scope.Put(
		store.KeyOf(string(r), attr.TypeSymbol),
		attr.NewSymbol(string(r)),
	)
}

func TestCompile_NodeHandlerLifecycle(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .node\n"+
		": .early before\n"+
		"<app/example.ext> input\n"+
		": .late after\n"+
		"```\n")

	release := make(chan struct{})
	loader := LoaderFunc(func(context.Context, string, string) (Resource, error) {
		<-release

		return symbolResource("loaded"), nil
	})

	var events []string

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	res, err := New(
		WithLoader(loader),
		WithProvider(lifecycleProvider{events: &events}),
	).Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	// The handler sees the direct property immediately, then the extension
	// result, then the property that was queued across the load, then the
	// completed node.
	want := []string{
		"node node",
		"prop early",
		"ext app/example.ext",
		"prop late",
		"done node",
	}

	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}

	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}

	node := res.Blocks[0].Nodes[0]
	if len(node.Extensions) != 1 || node.Extensions[0].Resource == nil {
		t.Fatal("expected the loaded resource recorded on the extension")
	}

	// The bound resource shares the node's scope.
	got, err := node.Scope.Get(store.KeyOf("loaded", attr.TypeSymbol))
	if err != nil {
		t.Fatalf("bound resource not in node scope: %v", err)
	}

	if got.Str != "loaded" {
		t.Errorf("bound value = %q, want loaded", got.Str)
	}
}

// refusingResource fails to bind.
type refusingResource struct{}

func (refusingResource) Bind(*store.Node) error {
	return errors.New("bind refused")
}

func TestCompile_ResourceBindFailureIsolatesNode(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .doomed\n"+
		"<ext.unbindable>\n"+
		"+ .survivor\n"+
		"```\n")

	loader := LoaderFunc(func(_ context.Context, addr, _ string) (Resource, error) {
		if addr == "ext.unbindable" {
			return refusingResource{}, nil
		}

		return nil, nil
	})

	var events []string

	res, err := New(
		WithLoader(loader),
		WithProvider(lifecycleProvider{events: &events}),
	).Compile(context.Background(), doc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrExtensionLoad) {
		t.Fatalf("expected extension load error, got %v", res.Errors)
	}

	if len(res.Blocks[0].Nodes) != 1 ||
		res.Blocks[0].Nodes[0].Name != "survivor" {
		t.Errorf("expected only survivor node, got %+v", res.Blocks[0].Nodes)
	}

	// Loads settle at block end, after both nodes exist. The handler still
	// hears about the failed load; the doomed node never completes.
	want := []string{
		"node doomed",
		"node survivor",
		"fail ext.unbindable",
		"done survivor",
	}

	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}

	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestCompile_ContextCancelled(t *testing.T) {
	doc := parse(t, "```runmd\n"+
		"+ .node\n"+
		"<ext.hang>\n"+
		"```\n")

	loader := LoaderFunc(func(context.Context, string, string) (Resource, error) {
		time.Sleep(time.Second)

		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := New(WithLoader(loader)).Compile(ctx, doc)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
