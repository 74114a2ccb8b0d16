package pipeline

import (
	"reflect"
	"testing"
)

func TestExtractEmails(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases matches",
			text: "Contact John.Smith@MIT.EDU for details.",
			want: []string{"john.smith@mit.edu"},
		},
		{
			name: "dedupes case-insensitively keeping first occurrence",
			text: "a@x.org B@Y.net A@X.ORG b@y.net",
			want: []string{"a@x.org", "b@y.net"},
		},
		{
			name: "subdomains and plus tags",
			text: "alice+papers@mail.cs.example.ac.uk, bob_c%d@sub.domain.io",
			want: []string{"alice+papers@mail.cs.example.ac.uk", "bob_c%d@sub.domain.io"},
		},
		{
			name: "ignores non-addresses",
			text: "see https://example.com and user@localhost and version 2.5@3",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractEmails(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ExtractEmails(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
