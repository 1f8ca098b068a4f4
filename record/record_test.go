package record

import "testing"

func TestFormattedInfo(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "all fields",
			rec:  Record{OwnerName: "LoginVC", ElementKind: "label", Comment: "Welcome text"},
			want: "LoginVC label Welcome text",
		},
		{
			name: "no comment omits segment",
			rec:  Record{OwnerName: "LoginVC", ElementKind: "label"},
			want: "LoginVC label",
		},
		{
			name: "no owner",
			rec:  Record{ElementKind: "switch", Comment: "Toggle"},
			want: "switch Toggle",
		},
		{
			name: "whitespace fields are absent",
			rec:  Record{OwnerName: "  ", ElementKind: "button", Comment: " "},
			want: "button",
		},
		{
			name: "nothing at all",
			rec:  Record{},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.FormattedInfo(); got != tc.want {
				t.Fatalf("FormattedInfo() = %q, want %q", got, tc.want)
			}
			if again := tc.rec.FormattedInfo(); again != tc.want {
				t.Fatalf("FormattedInfo() second call = %q, want %q", again, tc.want)
			}
		})
	}
}

func TestCatalogInfo(t *testing.T) {
	r := Record{OwnerName: "LoginVC", ElementKind: "textField"}
	if got, want := r.CatalogInfo("placeholder"), "LoginVC textField placeholder: "+NoCommentPlaceholder; got != want {
		t.Fatalf("CatalogInfo() = %q, want %q", got, want)
	}

	r.Comment = "Email field"
	if got, want := r.CatalogInfo("text"), "LoginVC textField text: Email field"; got != want {
		t.Fatalf("CatalogInfo() = %q, want %q", got, want)
	}

	if got, want := (Record{}).CatalogInfo(""), NoCommentPlaceholder; got != want {
		t.Fatalf("CatalogInfo(empty) = %q, want %q", got, want)
	}
}

func TestMatches(t *testing.T) {
	r := Record{OriginalID: "A1"}
	for _, id := range []string{"A1.text", "A1.placeholder", "A1.segmentTitles[0]", "A10.text"} {
		if !r.Matches(id) {
			t.Fatalf("Matches(%q) = false, want true", id)
		}
	}
	if r.Matches("B1.text") {
		t.Fatalf("Matches(B1.text) = true, want false")
	}

	empty := Record{}
	if empty.Matches("A1.text") || empty.Matches("") {
		t.Fatalf("empty OriginalID must never match")
	}
}
