package message

import (
	"errors"
	"reflect"
	"testing"
)

func TestFormatMentions_Automatic(t *testing.T) {
	m, err := FormatMentions("Hey {}! Name is {}",
		MentionArg{ThreadID: "id1", Name: "Ann"},
		MentionArg{ThreadID: "id2", Name: "Bob"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TextValue() != "Hey Ann! Name is Bob" {
		t.Errorf("Text = %q, want %q", m.TextValue(), "Hey Ann! Name is Bob")
	}
	want := []Mention{
		{ThreadID: "id1", Offset: 4, Length: 3},
		{ThreadID: "id2", Offset: 17, Length: 3},
	}
	if !reflect.DeepEqual(m.Mentions, want) {
		t.Errorf("Mentions = %+v, want %+v", m.Mentions, want)
	}
}

func TestFormatMentions_MixedNumberingFails(t *testing.T) {
	_, err := FormatMentions("Hi {} and {1}",
		MentionArg{ThreadID: "a", Name: "A"},
		MentionArg{ThreadID: "b", Name: "B"},
	)
	if !errors.Is(err, ErrFieldNumbering) {
		t.Fatalf("err = %v, want ErrFieldNumbering", err)
	}
	if !errors.Is(err, ErrMentionFormat) {
		t.Error("ErrFieldNumbering should wrap ErrMentionFormat")
	}
}

func TestFormatMentions_MixedNumberingExplicitFirst(t *testing.T) {
	_, err := FormatMentions("{0} and {}",
		MentionArg{ThreadID: "a", Name: "A"},
	)
	if !errors.Is(err, ErrFieldNumbering) {
		t.Fatalf("err = %v, want ErrFieldNumbering", err)
	}
}

func TestFormatMentions_ExplicitReuse(t *testing.T) {
	m, err := FormatMentions("{1}, {0} and {1}",
		MentionArg{ThreadID: "a", Name: "Al"},
		MentionArg{ThreadID: "b", Name: "Bea"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TextValue() != "Bea, Al and Bea" {
		t.Errorf("Text = %q", m.TextValue())
	}
	want := []Mention{
		{ThreadID: "b", Offset: 0, Length: 3},
		{ThreadID: "a", Offset: 5, Length: 2},
		{ThreadID: "b", Offset: 12, Length: 3},
	}
	if !reflect.DeepEqual(m.Mentions, want) {
		t.Errorf("Mentions = %+v, want %+v", m.Mentions, want)
	}
}

func TestFormatMentionsNamed(t *testing.T) {
	m, err := FormatMentionsNamed("{who} says hi to {}", []MentionArg{{ThreadID: "x", Name: "Xi"}},
		map[string]MentionArg{"who": {ThreadID: "w", Name: "Wen"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TextValue() != "Wen says hi to Xi" {
		t.Errorf("Text = %q", m.TextValue())
	}
	if len(m.Mentions) != 2 || m.Mentions[1].Offset != 15 {
		t.Errorf("Mentions = %+v", m.Mentions)
	}
}

func TestFormatMentions_EscapesAndSpecs(t *testing.T) {
	m, err := FormatMentions("{{x}} {:>5}|{!r}|{:.2}",
		MentionArg{ThreadID: "a", Name: "Al"},
		MentionArg{ThreadID: "b", Name: "Bo"},
		MentionArg{ThreadID: "c", Name: "Cleo"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TextValue() != "{x}    Al|'Bo'|Cl" {
		t.Errorf("Text = %q", m.TextValue())
	}
	want := []Mention{
		{ThreadID: "a", Offset: 4, Length: 5},
		{ThreadID: "b", Offset: 10, Length: 4},
		{ThreadID: "c", Offset: 15, Length: 2},
	}
	if !reflect.DeepEqual(m.Mentions, want) {
		t.Errorf("Mentions = %+v, want %+v", m.Mentions, want)
	}
}

func TestFormatMentions_SpecBeforeConversion(t *testing.T) {
	m, err := FormatMentions("Hey {!r:>8}!", MentionArg{ThreadID: "1", Name: "Bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TextValue() != "Hey '     Bob'!" {
		t.Errorf("Text = %q, want %q", m.TextValue(), "Hey '     Bob'!")
	}
	want := Mention{ThreadID: "1", Offset: 4, Length: 10}
	if len(m.Mentions) != 1 || m.Mentions[0] != want {
		t.Errorf("Mentions = %+v, want [%+v]", m.Mentions, want)
	}
}

func TestFormatMentions_CountsCodePoints(t *testing.T) {
	m, err := FormatMentions("héllo {}", MentionArg{ThreadID: "z", Name: "Zoë"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Mention{ThreadID: "z", Offset: 6, Length: 3}
	if len(m.Mentions) != 1 || m.Mentions[0] != want {
		t.Errorf("Mentions = %+v, want [%+v]", m.Mentions, want)
	}
}

func TestFormatMentions_Errors(t *testing.T) {
	args := []MentionArg{{ThreadID: "a", Name: "A"}}
	tests := []struct {
		name     string
		template string
		wantErr  error
	}{
		{"missing positional", "{} {}", ErrMissingArg},
		{"missing named", "{nobody}", ErrMissingArg},
		{"single open brace", "hi {", ErrMentionFormat},
		{"single close brace", "hi }", ErrMentionFormat},
		{"bad conversion", "{!x}", ErrMentionFormat},
		{"numeric spec", "{:d}", ErrMentionFormat},
		{"attribute access", "{0.name}", ErrMentionFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatMentions(tt.template, args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPyRepr(t *testing.T) {
	tests := []struct {
		in    string
		ascii bool
		want  string
	}{
		{"Ann", false, "'Ann'"},
		{"O'Neil", false, `"O'Neil"`},
		{"a\nb", false, `'a\nb'`},
		{"Zoë", false, "'Zoë'"},
		{"Zoë", true, `'Zo\xeb'`},
		{"中", true, `'\u4e2d'`},
	}
	for _, tt := range tests {
		if got := pyRepr(tt.in, tt.ascii); got != tt.want {
			t.Errorf("pyRepr(%q, %v) = %s, want %s", tt.in, tt.ascii, got, tt.want)
		}
	}
}
