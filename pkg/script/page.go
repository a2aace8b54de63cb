package script

// Page scripts used by the action layer.
var (
	ReadyState = New("readyState", `return document.readyState;`)

	InnerText = New("innerText", `var el = document.querySelector({{quote .Selector}});
return el ? el.innerText : null;`)

	ElementAt = New("elementAt", `var els = document.querySelectorAll({{quote .Selector}});
return els.length > {{.Index}} ? els[{{.Index}}] : null;`)

	// A function replacement keeps "$&" and friends in .New literal.
	ReplaceURL = New("replaceURL", `var next = window.location.href.replace({{quote .Old}}, function () { return {{quote .New}}; });
window.location.href = next;
return next;`)
)

// SelectorArgs is the data for InnerText.
type SelectorArgs struct {
	Selector string
}

// IndexArgs is the data for ElementAt.
type IndexArgs struct {
	Selector string
	Index    int
}

// ReplaceArgs is the data for ReplaceURL.
type ReplaceArgs struct {
	Old string
	New string
}
