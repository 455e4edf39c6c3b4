package hubtest

import (
	"strings"

	"github.com/google/uuid"
)

// Element is a DOM element of the fake page.
type Element struct {
	ID        string
	Tag       string
	Text      string
	Value     string
	Attrs     map[string]string
	CSS       map[string]string
	Selected  bool
	Enabled   bool
	Displayed bool
	X, Y      int
	Width     int
	Height    int
	// Children are ids of nested elements.
	Children []string
}

// Browser is the state of one fake session.
type Browser struct {
	Capabilities  map[string]interface{}
	URL           string
	Title         string
	Source        string
	History       []string
	Forward       []string
	Elements      map[string]*Element
	Order         []string
	Active        string
	Cookies       []map[string]interface{}
	Windows       []string
	CurrentWindow string
	Frame         string
	Speed         string
	ImplicitWait  int64
}

// NewBrowser returns a blank browser with one window.
func NewBrowser() *Browser {
	window := uuid.NewString()
	return &Browser{
		URL:           "about:blank",
		Elements:      map[string]*Element{},
		Windows:       []string{window},
		CurrentWindow: window,
		Speed:         "FAST",
	}
}

// AddElement puts e on the page, assigning an id when it has none, and
// returns the id.
func (b *Browser) AddElement(e *Element) string {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	if _, exists := b.Elements[e.ID]; !exists {
		b.Order = append(b.Order, e.ID)
	}
	b.Elements[e.ID] = e
	return e.ID
}

func (e *Element) matches(using, value string) bool {
	switch using {
	case "id":
		return e.Attrs["id"] == value
	case "name":
		return e.Attrs["name"] == value
	case "class name":
		for _, c := range strings.Fields(e.Attrs["class"]) {
			if c == value {
				return true
			}
		}
	case "tag name":
		return strings.EqualFold(e.Tag, value)
	case "link text":
		return strings.EqualFold(e.Tag, "a") && e.Text == value
	case "partial link text":
		return strings.EqualFold(e.Tag, "a") && strings.Contains(e.Text, value)
	case "css selector":
		switch {
		case strings.HasPrefix(value, "#"):
			return e.Attrs["id"] == value[1:]
		case strings.HasPrefix(value, "."):
			return e.matches("class name", value[1:])
		default:
			return strings.EqualFold(e.Tag, value)
		}
	}
	return false
}

// find returns the ids of matching elements within scope, in page order.
func (b *Browser) find(scope []string, using, value string) []string {
	var ids []string
	for _, id := range scope {
		if e := b.Elements[id]; e != nil && e.matches(using, value) {
			ids = append(ids, id)
		}
	}
	return ids
}

// descendants lists the ids nested below root, depth first.
func (b *Browser) descendants(root string) []string {
	var ids []string
	e := b.Elements[root]
	if e == nil {
		return nil
	}
	for _, child := range e.Children {
		ids = append(ids, child)
		ids = append(ids, b.descendants(child)...)
	}
	return ids
}

func (b *Browser) navigate(url string) {
	if b.URL != "" {
		b.History = append(b.History, b.URL)
	}
	b.Forward = nil
	b.URL = url
}
