package capability

import (
	"reflect"
	"testing"
)

func TestResolveLevels(t *testing.T) {
	tests := []struct {
		name      string
		engine    string
		voice     string
		wantLevel SupportLevel
		wantStrip bool
	}{
		{"azure full", "azure", "en-US-JennyNeural", LevelFull, false},
		{"google base full", "google", "en-US-Wavenet-D", LevelFull, false},
		{"google journey rejects markup", "google", "en-US-Journey-F", LevelNone, true},
		{"google chirp rejects markup", "google", "en-US-Chirp3-HD-Aoede", LevelNone, true},
		{"polly standard full", "polly", "Joanna", LevelFull, false},
		{"polly neural limited", "polly", "Joanna-Neural", LevelLimited, false},
		{"edge limited", "edge", "en-GB-SoniaNeural", LevelLimited, false},
		{"openai plain text", "openai", "alloy", LevelNone, true},
		{"unknown engine", "shoutcaster-9000", "anything", LevelNone, true},
		{"engine id case insensitive", "Azure", "en-US-JennyNeural", LevelFull, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.engine, tt.voice)
			if p.Level != tt.wantLevel {
				t.Errorf("Resolve(%q, %q).Level = %v, want %v", tt.engine, tt.voice, p.Level, tt.wantLevel)
			}
			if got := p.StripAll(); got != tt.wantStrip {
				t.Errorf("Resolve(%q, %q).StripAll() = %v, want %v", tt.engine, tt.voice, got, tt.wantStrip)
			}
		})
	}
}

func TestResolveVoiceRuleAddsUnsupportedTags(t *testing.T) {
	p := Resolve("polly", "Matthew-Neural")
	if !p.Unsupported("emphasis") {
		t.Error("neural tier should mark emphasis unsupported")
	}
	if p.Unsupported("prosody") {
		t.Error("neural tier should keep prosody supported")
	}

	base := Resolve("polly", "Matthew")
	if base.Unsupported("emphasis") {
		t.Error("base polly profile should support emphasis")
	}
}

func TestResolveUnknownEngine(t *testing.T) {
	p := Resolve("nope", "voice-1")
	if p.SupportsMarkup {
		t.Error("unknown engine should not claim markup support")
	}
	if !p.UnsupportedTags.Has(Wildcard) {
		t.Errorf("UnsupportedTags = %v, want wildcard entry", p.UnsupportedTags.Sorted())
	}
}

func TestResolveReturnsCopies(t *testing.T) {
	p := Resolve("edge", "en-GB-SoniaNeural")
	p.UnsupportedTags["prosody"] = struct{}{}
	p.Level = LevelNone

	again := Resolve("edge", "en-GB-SoniaNeural")
	if again.UnsupportedTags.Has("prosody") {
		t.Error("mutating a resolved profile leaked into the registry")
	}
	if again.Level != LevelLimited {
		t.Errorf("Level after mutation = %v, want %v", again.Level, LevelLimited)
	}
}

func TestRequiredDeclarations(t *testing.T) {
	azure := Resolve("azure", "en-US-JennyNeural")
	if !azure.RequiresNamespaceDecl || !azure.RequiresVersionDecl {
		t.Error("azure profile should require namespace and version declarations")
	}
	google := Resolve("google", "en-US-Wavenet-D")
	if google.RequiresNamespaceDecl || google.RequiresVersionDecl {
		t.Error("google profile should not require document declarations")
	}
}

func TestCustomRegistry(t *testing.T) {
	r := NewRegistry()
	r.Add("lab", Profile{SupportsMarkup: true, Level: LevelFull},
		VoiceRule{Match: "draft", Level: LevelLimited, Unsupported: []string{"say-as"}})

	tests := []struct {
		name  string
		voice string
		want  SupportLevel
	}{
		{"base profile", "lab-prod-1", LevelFull},
		{"tier rule", "lab-draft-2", LevelLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve("lab", tt.voice).Level; got != tt.want {
				t.Errorf("Resolve(lab, %q).Level = %v, want %v", tt.voice, got, tt.want)
			}
		})
	}

	if got := r.Resolve("lab", "lab-draft-2"); !got.Unsupported("say-as") {
		t.Error("tier rule should add say-as to the unsupported set")
	}
}

func TestSupportLevelString(t *testing.T) {
	tests := []struct {
		level SupportLevel
		want  string
	}{
		{LevelNone, "none"},
		{LevelLimited, "limited"},
		{LevelFull, "full"},
		{SupportLevel(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("SupportLevel(%d).String() = %q, want %q", int(tt.level), got, tt.want)
		}
	}
}

func TestTagSetSorted(t *testing.T) {
	s := NewTagSet("voice", "break", "audio")
	want := []string{"audio", "break", "voice"}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestEnginesSorted(t *testing.T) {
	ids := Default().Engines()
	if len(ids) == 0 {
		t.Fatal("built-in registry has no engines")
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("Engines() not sorted: %q before %q", ids[i-1], ids[i])
		}
	}
}
