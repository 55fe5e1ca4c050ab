package inspector

import (
	"encoding/json"
	"regexp"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
	"github.com/kaptinlin/jsonrepair"
	"github.com/mudler/xlog"
	"github.com/tidwall/gjson"
	"mvdan.cc/xurls/v2"

	"github.com/yornfifty/intentkit-chat/core/chat"
	"github.com/yornfifty/intentkit-chat/core/render"
)

var urlRx *regexp.Regexp

func init() {
	urlRx = xurls.Strict()
}

// Formatted is the tagged result of a best-effort payload formatting pass:
// either pretty-printed structured data or the raw text fallback. Parsing is
// never exception-driven, every fallback path is explicit.
type Formatted struct {
	Text   string
	Parsed bool
}

// Report is the display record for an inspected skill call. It always opens:
// any parse failure degrades to raw text, and media detection failing just
// means no preview.
type Report struct {
	ID         string
	Name       string
	Parameters Formatted
	Response   Formatted
	MediaURL   string
	Preview    elem.Node
}

// Inspect formats a skill call's parameters and response and runs media
// detection on the response.
func Inspect(call chat.SkillCall) Report {
	report := Report{
		ID:         call.ID,
		Name:       call.Name,
		Parameters: formatPayload(call.Parameters),
		Response:   formatPayload(call.Response),
	}

	if url, ok := detectMedia(call.Response); ok {
		report.MediaURL = url
		// Category inference is shared with attachment rendering; an
		// unrecognized extension yields the link preview rather than nothing.
		report.Preview = render.ResolvePreview(chat.Attachment{URL: url}).Node
	}

	return report
}

// Node renders the report as a view fragment for the inspector panel.
func (r Report) Node() elem.Node {
	title := r.Name
	if title == "" {
		title = "skill call"
	}

	children := []elem.Node{
		elem.H3(attrs.Props{attrs.Class: "skill-name"}, elem.Text(title)),
		elem.H4(nil, elem.Text("Parameters")),
		elem.Pre(attrs.Props{attrs.Class: "skill-parameters"}, elem.Text(r.Parameters.Text)),
	}
	if r.Preview != nil {
		children = append(children,
			elem.Div(attrs.Props{attrs.Class: "skill-media"}, r.Preview))
	}
	children = append(children,
		elem.H4(nil, elem.Text("Response")),
		elem.Pre(attrs.Props{attrs.Class: "skill-response"}, elem.Text(r.Response.Text)))

	return elem.Div(attrs.Props{attrs.Class: "skill-inspector"}, children...)
}

// formatPayload pretty-prints a parameters/response payload. A string payload
// that itself encodes JSON is unwrapped and printed structured; when strict
// parsing fails a jsonrepair pass gets a second chance before the raw string
// fallback.
func formatPayload(raw json.RawMessage) Formatted {
	if len(raw) == 0 {
		return Formatted{}
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		if pretty, ok := prettyJSON([]byte(s)); ok {
			return Formatted{Text: pretty, Parsed: true}
		}
		if fixed, err := jsonrepair.JSONRepair(s); err == nil {
			if pretty, ok := prettyJSON([]byte(fixed)); ok {
				xlog.Debug("Skill payload repaired before formatting")
				return Formatted{Text: pretty, Parsed: true}
			}
		}
		return Formatted{Text: s}
	}

	if pretty, ok := prettyJSON(raw); ok {
		return Formatted{Text: pretty, Parsed: true}
	}
	return Formatted{Text: string(raw)}
}

func prettyJSON(data []byte) (string, bool) {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return "", false
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", false
	}
	return string(out), true
}

// detectMedia probes a response payload for a media URL, first match wins:
//  1. a direct image_url string field;
//  2. data[0].url (list-of-generated-assets shapes);
//  3. a top-level url field carrying a recognized media extension;
//  4. the bare string response itself, if it has a recognized media extension.
func detectMedia(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	doc := raw
	bare := ""
	var s string
	if json.Unmarshal(raw, &s) == nil {
		// String response: it may encode a JSON document, or be a bare URL.
		if json.Valid([]byte(s)) {
			doc = []byte(s)
		} else {
			doc = nil
			bare = s
		}
	}

	if doc != nil {
		if r := gjson.GetBytes(doc, "image_url"); r.Type == gjson.String && r.Str != "" {
			return r.Str, true
		}
		if r := gjson.GetBytes(doc, "data.0.url"); r.Type == gjson.String && r.Str != "" {
			return r.Str, true
		}
		if r := gjson.GetBytes(doc, "url"); r.Type == gjson.String && isMediaURL(r.Str) {
			return r.Str, true
		}
		if str := gjson.ParseBytes(doc); str.Type == gjson.String {
			bare = str.Str
		}
	}

	if bare != "" && isMediaURL(bare) {
		return bare, true
	}
	return "", false
}

func isMediaURL(candidate string) bool {
	if !urlRx.MatchString(candidate) {
		return false
	}
	return render.ResolveCategory(candidate) != render.CategoryFile
}
