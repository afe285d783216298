package style

import "testing"

func TestParseFormatStyle(t *testing.T) {
	s := "ellipse;fillColor=#FFF;points=[[0,0],[1,1]];html=1"
	props := ParseStyle(s)
	if len(props) != 4 {
		t.Fatalf("len(props) = %d, want 4", len(props))
	}
	if props[0].HasValue || props[0].Key != "ellipse" {
		t.Errorf("props[0] = %+v, want bare ellipse flag", props[0])
	}
	if props[2].Value != "[[0,0],[1,1]]" {
		t.Errorf("points value = %q", props[2].Value)
	}
	if got := FormatStyle(props); got != s+";" {
		t.Errorf("FormatStyle = %q, want %q", got, s+";")
	}
}

func TestMergeStyle(t *testing.T) {
	tests := []struct {
		base, custom, want string
	}{
		{"a=1;b=2;", "b=3;c=4;", "a=1;b=3;c=4;"},
		{"", "x=1;", "x=1;"},
		{"shape=image;html=1;", "", "shape=image;html=1;"},
		{"edgeLabel;html=1;", "edgeLabel;fontSize=9;", "edgeLabel;html=1;fontSize=9;"},
	}
	for _, tt := range tests {
		if got := MergeStyle(tt.base, tt.custom); got != tt.want {
			t.Errorf("MergeStyle(%q, %q) = %q, want %q", tt.base, tt.custom, got, tt.want)
		}
	}
}

func TestStyleValueAndFlag(t *testing.T) {
	s := "text;html=1;strokeColor=none;"
	if v, ok := StyleValue(s, "strokeColor"); !ok || v != "none" {
		t.Errorf("StyleValue(strokeColor) = %q, %v", v, ok)
	}
	if _, ok := StyleValue(s, "fillColor"); ok {
		t.Error("StyleValue(fillColor) found, want missing")
	}
	if !HasFlag(s, "text") {
		t.Error("HasFlag(text) = false, want true")
	}
	if HasFlag("html=1;edgeLabel=1", "html") {
		t.Error("HasFlag(html) = true for non-leading key=value, want false")
	}
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"a=1;b;", false},
		{";;a=1", false},
		{"=1;", true},
		{"bad key=1;", true},
	}
	for _, tt := range tests {
		if err := ValidateStyle(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("ValidateStyle(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
