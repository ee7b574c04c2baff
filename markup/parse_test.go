package markup

import (
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"plain text",
			"hello world",
			"hello world",
		},
		{
			"simple document",
			`<speak>hello</speak>`,
			`<speak>hello</speak>`,
		},
		{
			"attributes keep order",
			`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis">hi</speak>`,
			`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis">hi</speak>`,
		},
		{
			"self closing",
			`<speak>a<break time="500ms"/>b</speak>`,
			`<speak>a<break time="500ms"/>b</speak>`,
		},
		{
			"self closing with space normalizes",
			`<speak>a<break time="500ms" />b</speak>`,
			`<speak>a<break time="500ms"/>b</speak>`,
		},
		{
			"nested elements",
			`<speak><prosody rate="fast"><emphasis level="strong">x</emphasis></prosody></speak>`,
			`<speak><prosody rate="fast"><emphasis level="strong">x</emphasis></prosody></speak>`,
		},
		{
			"unclosed element closed at end of input",
			`<speak>hello`,
			`<speak>hello</speak>`,
		},
		{
			"stray end tag dropped",
			`<speak>hello</prosody></speak>`,
			`<speak>hello</speak>`,
		},
		{
			"literal angle bracket kept",
			`<speak>a < b</speak>`,
			`<speak>a < b</speak>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.input).String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStability(t *testing.T) {
	// parse -> serialize -> parse must be a fixed point; Transform's
	// idempotency rests on this.
	inputs := []string{
		`<speak>Hello <break time="500ms"/> world!</speak>`,
		`<speak><voice name="en-US-JennyNeural"><p><s>one</s><s>two</s></p></voice></speak>`,
		`<speak>broken <b`,
		`text only`,
	}
	for _, in := range inputs {
		once := Parse(in).String()
		twice := Parse(once).String()
		if once != twice {
			t.Errorf("serialization unstable for %q: %q != %q", in, once, twice)
		}
	}
}

func TestParseAttrs(t *testing.T) {
	doc := Parse(`<speak><say-as interpret-as="date" format="mdy">4/1</say-as></speak>`)
	root := doc.Root()
	if root == nil {
		t.Fatal("Root() = nil, want speak element")
	}
	if len(root.Children) != 1 {
		t.Fatalf("len(root.Children) = %d, want 1", len(root.Children))
	}
	sayAs := root.Children[0]
	if sayAs.Tag != "say-as" {
		t.Fatalf("child tag = %q, want say-as", sayAs.Tag)
	}
	if v, ok := sayAs.Attr("interpret-as"); !ok || v != "date" {
		t.Errorf(`Attr("interpret-as") = %q, %v; want "date", true`, v, ok)
	}
	if v, ok := sayAs.Attr("format"); !ok || v != "mdy" {
		t.Errorf(`Attr("format") = %q, %v; want "mdy", true`, v, ok)
	}
}

func TestDocumentTags(t *testing.T) {
	doc := Parse(`<speak><prosody rate="fast">a<break/></prosody><shout>b</shout></speak>`)
	tags := doc.Tags()
	for _, want := range []string{"speak", "prosody", "break", "shout"} {
		if _, ok := tags[want]; !ok {
			t.Errorf("Tags() missing %q", want)
		}
	}
}

func TestIsDocument(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"document", `<speak>hi</speak>`, true},
		{"document with attrs", `<speak version="1.0">hi</speak>`, true},
		{"leading whitespace", "  \n<speak>hi</speak>", true},
		{"plain text", "hello", false},
		{"markdown", "# heading", false},
		{"speak prefix word", `<speakeasy>hi</speakeasy>`, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDocument(tt.input); got != tt.want {
				t.Errorf("IsDocument(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
