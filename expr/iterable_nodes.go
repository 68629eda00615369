package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/types"
)

// IndexFunc resolves container[index] for a registered (container,
// index) type pair. It returns a ValueMissing error for an
// out-of-range index rather than panicking.
type IndexFunc func(container, index Value) (Value, error)

// Indexed is the `[]` node: container/index -> element.
type Indexed struct {
	Container Node
	Index     Node
	OutType   types.ID
	Fn        IndexFunc
}

// NewIndexed builds an indexed-access node.
func NewIndexed(container, index Node, outType types.ID, fn IndexFunc) *Indexed {
	return &Indexed{Container: container, Index: index, OutType: outType, Fn: fn}
}

func (n *Indexed) TypeID() types.ID { return n.OutType }

func (n *Indexed) Evaluate(ctx *evalctx.Context) (Value, error) {
	cv, err := n.Container.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	iv, err := n.Index.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return n.Fn(cv, iv)
}

func (n *Indexed) String() string {
	return n.Container.String() + "[" + n.Index.String() + "]"
}

func (n *Indexed) Complexity() int { return 1 + n.Container.Complexity() + n.Index.Complexity() }

// CountFunc counts the elements of a container value.
type CountFunc func(container Value) (int64, error)

// Count is the `.count` collection-unary node.
type Count struct {
	Container      Node
	Fn             CountFunc
	ComplexityHint int // 1 for random-access containers, 10 for generic ones
}

// NewCount builds a count node.
func NewCount(container Node, fn CountFunc, complexityHint int) *Count {
	return &Count{Container: container, Fn: fn, ComplexityHint: complexityHint}
}

func (c *Count) TypeID() types.ID { return types.Int }

func (c *Count) Evaluate(ctx *evalctx.Context) (Value, error) {
	cv, err := c.Container.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	n, err := c.Fn(cv)
	if err != nil {
		return nil, err
	}
	return IntValue(n), nil
}

func (c *Count) String() string { return c.Container.String() + ".count" }

func (c *Count) Complexity() int { return c.ComplexityHint + c.Container.Complexity() }

// EmptyFunc reports whether a container value has zero elements.
type EmptyFunc func(container Value) (bool, error)

// Empty is the `.empty` collection-unary node.
type Empty struct {
	Container Node
	Fn        EmptyFunc
}

// NewEmpty builds an empty node.
func NewEmpty(container Node, fn EmptyFunc) *Empty {
	return &Empty{Container: container, Fn: fn}
}

func (e *Empty) TypeID() types.ID { return types.Bool }

func (e *Empty) Evaluate(ctx *evalctx.Context) (Value, error) {
	cv, err := e.Container.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	b, err := e.Fn(cv)
	if err != nil {
		return nil, err
	}
	return BoolValue(b), nil
}

func (e *Empty) String() string { return e.Container.String() + ".empty" }

func (e *Empty) Complexity() int { return 1 + e.Container.Complexity() }

// ContainsFunc reports whether elem is found in container by linear
// search, unconditionally.
type ContainsFunc func(container, elem Value) (bool, error)

// Containment is the `element in container` node.
type Containment struct {
	Elem      Node
	Container Node
	Fn        ContainsFunc
}

// NewContainment builds an `in` node.
func NewContainment(elem, container Node, fn ContainsFunc) *Containment {
	return &Containment{Elem: elem, Container: container, Fn: fn}
}

func (n *Containment) TypeID() types.ID { return types.Bool }

func (n *Containment) Evaluate(ctx *evalctx.Context) (Value, error) {
	ev, err := n.Elem.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	cv, err := n.Container.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	b, err := n.Fn(cv, ev)
	if err != nil {
		return nil, err
	}
	return BoolValue(b), nil
}

func (n *Containment) String() string {
	return n.Elem.String() + " in " + n.Container.String()
}

func (n *Containment) Complexity() int { return 1 + n.Elem.Complexity() + n.Container.Complexity() }
