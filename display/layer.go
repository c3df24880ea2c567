package display

import (
	"context"
	"fmt"
	"sync"
)

// Layer is an in-process client-side layer. Like a client-side feature
// layer it owns object id assignment: new graphics get the next id after
// the highest one it holds, whatever id they arrive with.
type Layer struct {
	mu       sync.Mutex
	order    []int64
	graphics map[int64]Graphic
	nextID   int64
}

func NewLayer() *Layer {
	return &Layer{graphics: make(map[int64]Graphic), nextID: 1}
}

// RenderExisting adds graphics under their own object ids, replacing any
// graphic already held under the same id.
func (l *Layer) RenderExisting(ctx context.Context, graphics []Graphic) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range graphics {
		id := g.Attributes.ObjectID
		if id <= 0 {
			return fmt.Errorf("graphic has no object id")
		}
		l.put(id, g)
	}
	return nil
}

func (l *Layer) RenderNew(ctx context.Context, g Graphic) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	g.Attributes.ObjectID = id
	l.put(id, g)
	return id, true, nil
}

func (l *Layer) Retract(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.graphics[id]; !ok {
		return fmt.Errorf("no graphic with object id %d", id)
	}
	delete(l.graphics, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// Graphics returns a snapshot in insertion order.
func (l *Layer) Graphics() []Graphic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Graphic, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.graphics[id])
	}
	return out
}

func (l *Layer) put(id int64, g Graphic) {
	if _, exists := l.graphics[id]; !exists {
		l.order = append(l.order, id)
	}
	l.graphics[id] = g
	if id >= l.nextID {
		l.nextID = id + 1
	}
}
