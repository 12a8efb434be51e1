package htmlform

import (
	"strings"
	"testing"
)

const applePostPage = `<!DOCTYPE html>
<html><body>
<form action="/search" method="get"><input type="text" name="q" value="apple"><input type="submit"></form>
<form action="https://example.com/apple/return" method="POST">
  <input type="hidden" name="state" value="abc123">
  <input type="hidden" name="code" value="c.0a1b">
  <input type="hidden" name="user" value='{"name":{"firstName":"A"}}'>
  <textarea name="note">hi there</textarea>
  <select name="lang"><option value="en">English</option><option value="fr" selected>French</option></select>
  <input type="checkbox" name="remember">
  <input type="text" value="no name">
</form>
</body></html>`

func TestParse(t *testing.T) {
	forms, err := ParseString(applePostPage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(forms))
	}

	second := forms[1]
	if second.Method != "post" || second.Action != "https://example.com/apple/return" {
		t.Fatalf("unexpected form attributes: %+v", second)
	}
	want := `state=abc123|code=c.0a1b|user={"name":{"firstName":"A"}}|note=hi there|lang=fr|remember=on|`
	if got := second.Payload(); got != want {
		t.Fatalf("Payload:\n got %q\nwant %q", got, want)
	}
}

func TestPayloads(t *testing.T) {
	payloads, err := Payloads(strings.NewReader(applePostPage))
	if err != nil {
		t.Fatalf("Payloads: %v", err)
	}
	if len(payloads) != 2 || payloads[0] != "q=apple|" {
		t.Fatalf("unexpected payloads %q", payloads)
	}
}

func TestParse_SelectDefaultsToFirstOption(t *testing.T) {
	forms, err := ParseString(`<form><select name="s"><option>One</option><option>Two</option></select></form>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := forms[0].Payload(); got != "s=One|" {
		t.Fatalf("Payload = %q", got)
	}
}

func TestParse_NoForms(t *testing.T) {
	forms, err := ParseString(`<html><body><p>done</p></body></html>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(forms) != 0 {
		t.Fatalf("expected no forms, got %d", len(forms))
	}
}

func TestParse_FormElementsMembership(t *testing.T) {
	page := `<html><body>
<form id="apple" method="post">
  <input type="hidden" name="state" value="s">
  <input type="image" name="submit" src="btn.png">
  <input type="hidden" name="elsewhere" value="x" form="other">
  <input type="hidden" name="orphan" value="y" form="missing">
</form>
<input type="hidden" name="code" value="C" form="apple">
<input type="hidden" name="loose" value="z">
<form id="other"></form>
</body></html>`

	forms, err := ParseString(page)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(forms))
	}
	if got := forms[0].Payload(); got != "state=s|code=C|" {
		t.Fatalf("first form payload = %q", got)
	}
	if got := forms[1].Payload(); got != "elsewhere=x|" {
		t.Fatalf("second form payload = %q", got)
	}
}
