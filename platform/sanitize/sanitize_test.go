package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Acme  Corp", "Acme Corp"},
		{"<b>Ada</b> Lovelace", "Ada Lovelace"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;ok", "alert(1)ok"},
		{"  Tom &amp; Jerry \n", "Tom & Jerry"},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("nil input should stay nil")
	}
	blank := " <br/> "
	if TextPtr(&blank) != nil {
		t.Fatal("blank result should become nil")
	}
	note := "call <i>back</i>"
	if got := TextPtr(&note); got == nil || *got != "call back" {
		t.Fatalf("unexpected result %v", got)
	}
}
