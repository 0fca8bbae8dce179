package llm

import (
	"strings"
	"testing"
)

func TestRenderPrompt(t *testing.T) {
	got := RenderPrompt("T={title} A={album} again {title}", "x{album}", "y")
	if got != "T=x{album} A=y again x{album}" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestBuildRequestBodyEscaping(t *testing.T) {
	body, err := BuildRequestBody("m", "", "say \"hi\"\\ <b>&\n\t\x01 心")
	if err != nil {
		t.Fatalf("BuildRequestBody returned error: %v", err)
	}
	s := string(body)
	want := `{"model":"m","messages":[{"role":"system","content":"You produce latinized ASCII-only names."},{"role":"user","content":"say \"hi\"\\ <b>&\n\t\u0001 心"}],"stream":false,"temperature":0.2}`
	if s != want {
		t.Fatalf("unexpected body:\n got %s\nwant %s", s, want)
	}
	if strings.HasSuffix(s, "\n") {
		t.Fatal("expected no trailing newline")
	}
}

func TestBuildRequestBodyReplacesInvalidUTF8(t *testing.T) {
	body, err := BuildRequestBody("m", "sys", "a\xffb")
	if err != nil {
		t.Fatalf("BuildRequestBody returned error: %v", err)
	}
	if !strings.Contains(string(body), `"content":"a\ufffdb"`) {
		t.Fatalf("expected invalid byte replaced with U+FFFD, got %s", body)
	}
}
