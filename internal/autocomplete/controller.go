// Package autocomplete implements the suggestion box for the meal name
// input: filtering against known meal names and the keyboard and focus
// state machine that drives the open list.
package autocomplete

import (
	"strings"
	"sync"
	"time"
)

// Key names as delivered by the web client.
const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
	KeyTab       = "Tab"
)

// BlurGrace is how long the list stays open after the input loses focus,
// leaving time for a click on a suggestion to land.
const BlurGrace = 150 * time.Millisecond

// Filter returns the suggestions matching the text: a case-insensitive
// substring match, excluding suggestions equal to the text itself. Empty
// or whitespace-only text matches nothing.
func Filter(text string, suggestions []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var matched []string
	for _, s := range suggestions {
		candidate := strings.ToLower(s)
		if strings.Contains(candidate, lower) && candidate != lower {
			matched = append(matched, s)
		}
	}
	return matched
}

// Controller tracks one input's autocomplete state. The highlighted index
// is -1 when no suggestion is highlighted.
type Controller struct {
	mu          sync.Mutex
	suggestions []string
	text        string
	open        bool
	highlighted int
	blurTimer   *time.Timer
	blurGrace   time.Duration
}

func NewController() *Controller {
	return &Controller{highlighted: -1, blurGrace: BlurGrace}
}

// SetSuggestions replaces the pool of known meal names.
func (c *Controller) SetSuggestions(suggestions []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestions = suggestions
}

// SetText records an edit. Typing opens the list and clears the highlight.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.open = true
	c.highlighted = -1
}

// Text returns the current input text.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Focus opens the list and cancels any pending blur close.
func (c *Controller) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blurTimer != nil {
		c.blurTimer.Stop()
		c.blurTimer = nil
	}
	c.open = true
}

// Blur schedules the list to close after the grace period.
func (c *Controller) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blurTimer != nil {
		c.blurTimer.Stop()
	}
	c.blurTimer = time.AfterFunc(c.blurGrace, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.open = false
		c.highlighted = -1
	})
}

// Visible returns the currently visible suggestions, which is empty when
// the list is closed.
func (c *Controller) Visible() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

// Highlighted returns the highlighted index into Visible, or -1.
func (c *Controller) Highlighted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.visibleLocked()) == 0 {
		return -1
	}
	return c.highlighted
}

// Hover moves the highlight to the suggestion under the pointer. Indexes
// outside the visible list are ignored, as is hovering while the list is
// closed.
func (c *Controller) Hover(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.visibleLocked()) {
		return
	}
	c.highlighted = index
}

// Select commits a suggestion: the text takes its value and the list
// closes.
func (c *Controller) Select(suggestion string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = suggestion
	c.open = false
	c.highlighted = -1
}

// HandleKey applies one key press. selected carries the committed
// suggestion when Enter lands on a highlighted entry. handled is false
// when the key should fall through to the surrounding form, which covers
// every key while the list is hidden, Enter with no highlight, and Tab.
func (c *Controller) HandleKey(key string) (selected string, handled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := c.visibleLocked()
	if len(visible) == 0 {
		return "", false
	}

	switch key {
	case KeyArrowDown:
		if c.highlighted < len(visible)-1 {
			c.highlighted++
		}
		return "", true
	case KeyArrowUp:
		if c.highlighted > -1 {
			c.highlighted--
		}
		return "", true
	case KeyEnter:
		if c.highlighted < 0 {
			return "", false
		}
		selected = visible[c.highlighted]
		c.text = selected
		c.open = false
		c.highlighted = -1
		return selected, true
	case KeyEscape:
		c.open = false
		c.highlighted = -1
		return "", true
	case KeyTab:
		// The list closes but the key still moves focus.
		c.open = false
		return "", false
	default:
		return "", false
	}
}

func (c *Controller) visibleLocked() []string {
	if !c.open {
		return nil
	}
	return Filter(c.text, c.suggestions)
}
