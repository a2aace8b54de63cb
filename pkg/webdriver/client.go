// Package webdriver is a minimal W3C WebDriver client for a remote automation
// server such as Macaca. It speaks both W3C and legacy JSON wire responses.
package webdriver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/core"
	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// DefaultCommandTimeout bounds a single HTTP round trip to the server.
const DefaultCommandTimeout = 300 * time.Second

// Element is a reference to a remote DOM element.
type Element struct {
	ID string
}

// Client handles HTTP communication with the automation server.
type Client struct {
	serverURL    string
	sessionID    string
	client       *http.Client
	capabilities map[string]interface{}
}

// NewClient creates a new client. A zero timeout selects DefaultCommandTimeout.
func NewClient(serverURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(ctx context.Context, capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
		// Legacy JSON wire servers read desiredCapabilities.
		"desiredCapabilities": capabilities,
	}

	resp, err := c.post(ctx, "/session", body)
	if err != nil {
		if core.CategoryOf(err) == core.ErrCategoryConnection {
			return err
		}
		return core.ErrSessionNotCreated.WithCause(err)
	}

	// W3C: {"value": {"sessionId": ..., "capabilities": {...}}}
	// JSON wire: {"sessionId": ..., "status": 0, "value": {...caps}}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		c.sessionID, _ = value["sessionId"].(string)
		c.capabilities, _ = value["capabilities"].(map[string]interface{})
		if c.sessionID == "" {
			c.capabilities = value
		}
	}
	if c.sessionID == "" {
		c.sessionID, _ = resp["sessionId"].(string)
	}
	if c.sessionID == "" {
		return core.ErrSessionNotCreated.WithMessage("no session ID in response")
	}

	logger.Info("Session %s created on %s", c.sessionID, c.serverURL)
	return nil
}

// Disconnect closes the session. It is a no-op when no session is open.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(ctx, c.sessionPath())
	logger.Info("Session %s closed", c.sessionID)
	c.sessionID = ""
	return err
}

// SessionID returns the current session ID ("" when disconnected).
func (c *Client) SessionID() string {
	return c.sessionID
}

// Capabilities returns the capabilities reported by the server.
func (c *Client) Capabilities() map[string]interface{} {
	return c.capabilities
}

// Window & Navigation

// SetWindowSize resizes the current window.
func (c *Client) SetWindowSize(ctx context.Context, width, height int) error {
	_, err := c.post(ctx, c.sessionPath()+"/window/rect", map[string]interface{}{
		"width":  width,
		"height": height,
	})
	return err
}

// Navigate loads a URL in the current window.
func (c *Client) Navigate(ctx context.Context, target string) error {
	_, err := c.post(ctx, c.sessionPath()+"/url", map[string]interface{}{
		"url": target,
	})
	return err
}

// CurrentURL returns the URL of the current page.
func (c *Client) CurrentURL(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/url")
	if err != nil {
		return "", err
	}
	u, _ := resp["value"].(string)
	return u, nil
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(ctx context.Context, strategy, value string) (Element, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(ctx, c.sessionPath()+"/element", body)
	if err != nil {
		return Element{}, err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return Element{}, &Error{Code: codeNoSuchElement, Message: "empty element response"}
	}

	id := extractElementID(elemValue)
	if id == "" {
		return Element{}, &Error{Code: codeNoSuchElement, Message: "no element reference in response"}
	}
	return Element{ID: id}, nil
}

// FindElements finds all matching elements. No match is not an error.
func (c *Client) FindElements(ctx context.Context, strategy, value string) ([]Element, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(ctx, c.sessionPath()+"/elements", body)
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var elems []Element
	for _, v := range values {
		if m, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(m); id != "" {
				elems = append(elems, Element{ID: id})
			}
		}
	}
	return elems, nil
}

// Click clicks an element.
func (c *Client) Click(ctx context.Context, el Element) error {
	_, err := c.post(ctx, c.elementPath(el)+"/click", map[string]interface{}{})
	return err
}

// SendKeys types text into an element.
func (c *Client) SendKeys(ctx context.Context, el Element, text string) error {
	chars := make([]string, 0, len(text))
	for _, ch := range text {
		chars = append(chars, string(ch))
	}
	_, err := c.post(ctx, c.elementPath(el)+"/value", map[string]interface{}{
		"text":  text,
		"value": chars,
	})
	return err
}

// Text returns an element's visible text.
func (c *Client) Text(ctx context.Context, el Element) (string, error) {
	resp, err := c.get(ctx, c.elementPath(el)+"/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// CSSValue returns the computed value of a CSS property.
func (c *Client) CSSValue(ctx context.Context, el Element, property string) (string, error) {
	resp, err := c.get(ctx, c.elementPath(el)+"/css/"+url.PathEscape(property))
	if err != nil {
		return "", err
	}
	value, _ := resp["value"].(string)
	return value, nil
}

// Scripts

// Execute runs a synchronous script in the page. Element references in the
// result are decoded into Element values.
func (c *Client) Execute(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	if args == nil {
		args = []interface{}{}
	}
	resp, err := c.post(ctx, c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": script,
		"args":   args,
	})
	if err != nil {
		return nil, err
	}
	return decodeValue(resp["value"]), nil
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(el Element) string {
	return c.sessionPath() + "/element/" + el.ID
}

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	endpoint := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug("%s %s", method, path)
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.ErrServerUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, remoteError(&Error{Code: codeUnknown, Message: strings.TrimSpace(string(respBody)), HTTPStatus: resp.StatusCode})
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if wdErr := parseError(result, resp.StatusCode); wdErr != nil {
		return result, remoteError(wdErr)
	}
	return result, nil
}

// remoteError gives a server error payload the protocol category. A missing
// element stays bare so callers can keep polling on it.
func remoteError(wdErr *Error) error {
	if wdErr.Code == codeNoSuchElement {
		return wdErr
	}
	return core.ErrRemoteCommand.WithCause(wdErr)
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}

// decodeValue walks a script result and replaces element references.
func decodeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if len(t) <= 2 {
			if id := extractElementID(t); id != "" {
				return Element{ID: id}
			}
		}
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = decodeValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = decodeValue(item)
		}
		return out
	default:
		return v
	}
}
