package plan

import (
	"errors"
	"fmt"
	"sync"
)

// Fixed element ids the viewer binds to
const (
	IDCanvasContainer = "canvas-container"
	IDRoomList        = "room-list-content"
	IDFPS             = "fps"
	IDCameraPos       = "camera-pos"
)

// ErrMissingElement is returned when a required element id is absent
var ErrMissingElement = errors.New("missing element")

// Element is a node of the page document
type Element struct {
	ID       string
	Tag      string
	Class    string
	Text     string
	Children []*Element
}

// Document is a concurrency-safe element tree addressed by id.
// The render loop writes through it while HTTP handlers read snapshots.
type Document struct {
	mu   sync.RWMutex
	root *Element
	byID map[string]*Element
}

// NewDocument returns an empty document with only a body
func NewDocument() *Document {
	return &Document{
		root: &Element{Tag: "body"},
		byID: make(map[string]*Element),
	}
}

// NewViewerDocument returns a document carrying the four viewer mount points
func NewViewerDocument() *Document {
	d := NewDocument()
	d.Mount(&Element{ID: IDCanvasContainer, Tag: "div"})
	sidebar := &Element{ID: "room-list", Tag: "div", Children: []*Element{
		{Tag: "h3", Text: "Rooms"},
		{ID: IDRoomList, Tag: "div"},
	}}
	d.Mount(sidebar)
	d.Mount(&Element{ID: "info", Tag: "div", Children: []*Element{
		{ID: IDFPS, Tag: "span", Text: "0"},
		{ID: IDCameraPos, Tag: "span"},
	}})
	return d
}

// Mount appends an element subtree to the body
func (d *Document) Mount(el *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root.Children = append(d.root.Children, el)
	d.index(el)
}

// unmount removes the element with the given id and its subtree
func (d *Document) unmount(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.byID[id]
	if !ok {
		return
	}
	removeChild(d.root, el)
	d.unindex(el)
}

func removeChild(parent, target *Element) bool {
	for i, c := range parent.Children {
		if c == target {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return true
		}
		if removeChild(c, target) {
			return true
		}
	}
	return false
}

func (d *Document) index(el *Element) {
	if el.ID != "" {
		d.byID[el.ID] = el
	}
	for _, c := range el.Children {
		d.index(c)
	}
}

func (d *Document) unindex(el *Element) {
	if el.ID != "" {
		delete(d.byID, el.ID)
	}
	for _, c := range el.Children {
		d.unindex(c)
	}
}

// has reports whether an element with the id exists
func (d *Document) has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[id]
	return ok
}

// Require returns an error wrapping ErrMissingElement for the first absent id
func (d *Document) Require(ids ...string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, id := range ids {
		if _, ok := d.byID[id]; !ok {
			return fmt.Errorf("%w: #%s", ErrMissingElement, id)
		}
	}
	return nil
}

// AppendChild appends child under the element with the given id
func (d *Document) AppendChild(parentID string, child *Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	parent, ok := d.byID[parentID]
	if !ok {
		return fmt.Errorf("%w: #%s", ErrMissingElement, parentID)
	}
	parent.Children = append(parent.Children, child)
	d.index(child)
	return nil
}

// SetText replaces the text content of an element
func (d *Document) SetText(id, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.byID[id]
	if !ok {
		return fmt.Errorf("%w: #%s", ErrMissingElement, id)
	}
	el.Text = text
	return nil
}

// Text returns the text content of an element
func (d *Document) Text(id string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: #%s", ErrMissingElement, id)
	}
	return el.Text, nil
}

// Children returns a deep copy of the children of an element
func (d *Document) Children(id string) ([]Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: #%s", ErrMissingElement, id)
	}
	out := make([]Element, len(el.Children))
	for i, c := range el.Children {
		out[i] = *cloneElement(c)
	}
	return out, nil
}

// Snapshot returns a deep copy of the whole body
func (d *Document) Snapshot() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneElement(d.root)
}

func cloneElement(el *Element) *Element {
	cp := *el
	if len(el.Children) > 0 {
		cp.Children = make([]*Element, len(el.Children))
		for i, c := range el.Children {
			cp.Children[i] = cloneElement(c)
		}
	}
	return &cp
}
