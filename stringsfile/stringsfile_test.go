package stringsfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/ibkit/record"
	"github.com/minios-linux/ibkit/xcode"
)

var ibtoolOutput = &xcode.LocalizableStrings{
	Strings: map[string]map[string]interface{}{
		"F4z-Kg-ni6": {"text": "Welcome"},
		"Txt-Fl-001": {"placeholder": "Email", "text": `Say "hi"` + "\n"},
		"Sw1-aa-bb1": {"title": "Switch"},
	},
	Arrays: map[string]map[string]interface{}{
		"Seg-00-001": {"segmentTitles": []interface{}{"First", "Second"}},
	},
}

var records = []record.Record{
	{OriginalID: "F4z-Kg-ni6", OwnerName: "LoginViewController", ElementKind: "label", Enabled: true, Comment: "Welcome text"},
	{OriginalID: "Sw1-aa-bb1", OwnerName: "LoginViewController", ElementKind: "switch"},
	{OriginalID: "Seg-00-001", ElementKind: "segmentedControl", Enabled: true},
	{OriginalID: "Txt-Fl-001", OwnerName: "AccountViewController", ElementKind: "textField", Enabled: true},
	{OriginalID: "Gone-00-01", ElementKind: "label", Enabled: true},
}

func TestBuild(t *testing.T) {
	entries, missing := Build(records, ibtoolOutput)

	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key())
	}
	// Sorted by owner name, stable within an owner.
	want := []string{
		"Seg-00-001.segmentTitles[0]",
		"Seg-00-001.segmentTitles[1]",
		"Txt-Fl-001.placeholder",
		"Txt-Fl-001.text",
		"F4z-Kg-ni6.text",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if len(missing) != 1 || missing[0].OriginalID != "Gone-00-01" {
		t.Fatalf("missing = %v, want Gone-00-01", missing)
	}
}

func TestRender(t *testing.T) {
	entries, _ := Build(records[:4], ibtoolOutput)
	got := string(Render(entries))
	want := `/* segmentedControl segmentTitles[0]: No comment provided by engineer. */
"Seg-00-001.segmentTitles[0]" = "First";

/* segmentedControl segmentTitles[1]: No comment provided by engineer. */
"Seg-00-001.segmentTitles[1]" = "Second";

/* AccountViewController textField placeholder: No comment provided by engineer. */
"Txt-Fl-001.placeholder" = "Email";

/* AccountViewController textField text: No comment provided by engineer. */
"Txt-Fl-001.text" = "Say \"hi\"\n";

/* LoginViewController label text: Welcome text */
"F4z-Kg-ni6.text" = "Welcome";
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Render() mismatch (-want +got):\n%s", diff)
	}

	if got := Render(nil); len(got) != 0 {
		t.Fatalf("Render(nil) = %q, want empty", got)
	}
}

func TestCommentCannotCloseEarly(t *testing.T) {
	e := Entry{Record: record.Record{OriginalID: "A", Comment: "a */ b"}, Property: "text", Value: "v"}
	if got, want := e.String(), "/* text: a * / b */\n\"A.text\" = \"v\";"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		file, dir, want string
	}{
		{file: "App/Base.lproj/Main.storyboard", want: "App/Base.lproj/Main.strings"},
		{file: "App/Views/Cell.xib", dir: "out", want: "out/Cell.strings"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.file, tt.dir); got != filepath.FromSlash(tt.want) {
			t.Fatalf("OutputPath(%q, %q) = %q, want %q", tt.file, tt.dir, got, tt.want)
		}
	}
}

type fakeIbtool struct {
	ls  *xcode.LocalizableStrings
	err error
}

func (f fakeIbtool) LocalizableStrings(context.Context, string) (*xcode.LocalizableStrings, error) {
	return f.ls, f.err
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	ibFile := filepath.Join(dir, "Main.storyboard")
	out := filepath.Join(dir, "catalogs")

	res, err := Generate(context.Background(), fakeIbtool{ls: ibtoolOutput}, ibFile, records, out)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.Path != filepath.Join(out, "Main.strings") {
		t.Fatalf("Path = %q", res.Path)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff(string(Render(res.Entries)), string(data)); diff != "" {
		t.Fatalf("file content mismatch (-want +got):\n%s", diff)
	}
	if len(res.Missing) != 1 {
		t.Fatalf("Missing = %d, want 1", len(res.Missing))
	}

	boom := errors.New("ibtool failed")
	if _, err := Generate(context.Background(), fakeIbtool{err: boom}, ibFile, records, ""); !errors.Is(err, boom) {
		t.Fatalf("Generate() error = %v, want %v", err, boom)
	}
}
