// Package wdtest provides an in-memory WebDriver server for tests. Elements are
// registered per locator; clicks and scripts can be hooked to mutate the fake DOM.
// This should only be used in tests.
package wdtest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// SessionID is the session ID handed out by the fake server.
const SessionID = "fake-session"

const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Element is a fake DOM element.
type Element struct {
	ID     string
	Text   string
	CSS    map[string]string
	Keys   string
	Clicks int
}

// Request records one command received by the server.
type Request struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// ScriptFunc handles an execute/sync call. Returning an *Element makes the
// server reply with an element reference.
type ScriptFunc func(script string, args []interface{}) (interface{}, error)

// Server is a fake WebDriver endpoint.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	nextID     int
	elements   map[string]*Element
	locators   map[string][]string
	currentURL string
	readyState string
	closed     bool
	requests   []Request

	// Script handles scripts other than readiness probes.
	Script ScriptFunc
	// OnClick runs after an element is clicked, outside the server lock.
	OnClick func(el *Element)
	// RejectSession makes POST /session fail.
	RejectSession bool
	// ScreenshotPNG is served by GET /screenshot.
	ScreenshotPNG []byte
}

// NewServer starts a fake server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		elements:      make(map[string]*Element),
		locators:      make(map[string][]string),
		readyState:    "complete",
		ScreenshotPNG: SolidPNG(8, 6),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Add registers an element reachable via strategy/value and returns it.
func (s *Server) Add(strategy, value string, el *Element) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el == nil {
		el = &Element{}
	}
	if el.ID == "" {
		s.nextID++
		el.ID = fmt.Sprintf("el-%d", s.nextID)
	}
	s.elements[el.ID] = el
	key := locatorKey(strategy, value)
	s.locators[key] = append(s.locators[key], el.ID)
	return el
}

// Remove makes strategy/value match nothing.
func (s *Server) Remove(strategy, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locators, locatorKey(strategy, value))
}

// Snapshot returns a copy of the element with the given ID.
func (s *Server) Snapshot(id string) Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok {
		return Element{}
	}
	return *el
}

// SetText changes an element's text.
func (s *Server) SetText(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.elements[id]; ok {
		el.Text = text
	}
}

// SetCSS sets a computed style property of a registered element.
func (s *Server) SetCSS(id, property, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.elements[id]; ok {
		if el.CSS == nil {
			el.CSS = make(map[string]string)
		}
		el.CSS[property] = value
	}
}

// SetReadyState sets the value reported for document.readyState.
func (s *Server) SetReadyState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readyState = state
}

// CurrentURL returns the last navigated URL.
func (s *Server) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

// SetCurrentURL sets the current page URL.
func (s *Server) SetCurrentURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentURL = u
}

// Closed reports whether the session was deleted.
func (s *Server) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Requests returns a copy of the recorded commands.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountPath returns how many recorded requests have the given path suffix.
func (s *Server) CountPath(method, suffix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			n++
		}
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/session" && r.Method == http.MethodPost {
		if s.RejectSession {
			writeError(w, http.StatusInternalServerError, "session not created", "browser failed to start")
			return
		}
		writeValue(w, map[string]interface{}{
			"sessionId":    SessionID,
			"capabilities": map[string]interface{}{"browserName": "electron", "platformName": "desktop"},
		})
		return
	}

	prefix := "/session/" + SessionID
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusNotFound, "invalid session id", r.URL.Path)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	switch {
	case rest == "" && r.Method == http.MethodDelete:
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		writeValue(w, nil)
	case rest == "/window/rect":
		writeValue(w, map[string]interface{}{"x": 0, "y": 0, "width": body["width"], "height": body["height"]})
	case rest == "/url" && r.Method == http.MethodPost:
		u, _ := body["url"].(string)
		s.SetCurrentURL(u)
		writeValue(w, nil)
	case rest == "/url":
		writeValue(w, s.CurrentURL())
	case rest == "/element" && r.Method == http.MethodPost:
		ids := s.lookup(body)
		if len(ids) == 0 {
			writeError(w, http.StatusNotFound, "no such element", fmt.Sprintf("%v=%v", body["using"], body["value"]))
			return
		}
		writeValue(w, elementRef(ids[0]))
	case rest == "/elements" && r.Method == http.MethodPost:
		refs := []interface{}{}
		for _, id := range s.lookup(body) {
			refs = append(refs, elementRef(id))
		}
		writeValue(w, refs)
	case rest == "/execute/sync":
		s.execute(w, body)
	case rest == "/screenshot":
		writeValue(w, base64.StdEncoding.EncodeToString(s.ScreenshotPNG))
	case strings.HasPrefix(rest, "/element/"):
		s.elementCommand(w, r.Method, strings.TrimPrefix(rest, "/element/"), body)
	default:
		writeError(w, http.StatusNotFound, "unknown command", rest)
	}
}

func (s *Server) lookup(body map[string]interface{}) []string {
	using, _ := body["using"].(string)
	value, _ := body["value"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.locators[locatorKey(using, value)]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (s *Server) elementCommand(w http.ResponseWriter, method, rest string, body map[string]interface{}) {
	parts := strings.SplitN(rest, "/", 3)
	s.mu.Lock()
	el, ok := s.elements[parts[0]]
	s.mu.Unlock()
	if !ok || len(parts) < 2 {
		writeError(w, http.StatusNotFound, "stale element reference", rest)
		return
	}

	switch {
	case parts[1] == "click" && method == http.MethodPost:
		s.mu.Lock()
		el.Clicks++
		hook := s.OnClick
		s.mu.Unlock()
		if hook != nil {
			hook(el)
		}
		writeValue(w, nil)
	case parts[1] == "value" && method == http.MethodPost:
		text, _ := body["text"].(string)
		s.mu.Lock()
		el.Keys += text
		s.mu.Unlock()
		writeValue(w, nil)
	case parts[1] == "text":
		s.mu.Lock()
		text := el.Text
		s.mu.Unlock()
		writeValue(w, text)
	case parts[1] == "css" && len(parts) == 3:
		s.mu.Lock()
		v := el.CSS[parts[2]]
		s.mu.Unlock()
		writeValue(w, v)
	default:
		writeError(w, http.StatusNotFound, "unknown command", rest)
	}
}

func (s *Server) execute(w http.ResponseWriter, body map[string]interface{}) {
	script, _ := body["script"].(string)
	args, _ := body["args"].([]interface{})

	if strings.Contains(script, "document.readyState") {
		s.mu.Lock()
		state := s.readyState
		s.mu.Unlock()
		writeValue(w, state)
		return
	}

	if s.Script == nil {
		writeValue(w, nil)
		return
	}
	result, err := s.Script(script, args)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "javascript error", err.Error())
		return
	}
	if el, ok := result.(*Element); ok {
		writeValue(w, elementRef(el.ID))
		return
	}
	writeValue(w, result)
}

// SolidPNG returns a w×h single-colour PNG.
func SolidPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 144, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func locatorKey(strategy, value string) string {
	return strategy + "|" + value
}

func elementRef(id string) map[string]interface{} {
	return map[string]interface{}{w3cElementKey: id, "ELEMENT": id}
}

func writeValue(w http.ResponseWriter, value interface{}) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"value": value})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"value": map[string]interface{}{"error": code, "message": message},
	})
}
