package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Baseplate", "Baseplate"},
		{"spaces kept", "My Part (old)", "My Part (old)"},
		{"specials replaced", "a/b:c*d", "a_b_c_d"},
		{"trailing unicode stripped", "café", "caf"},
		{"interior unicode replaced", "ca fé x", "ca f_ x"},
		{"leading trailing stripped", "__name__", "name"},
		{"whitespace stripped", "  name  ", "name"},
		{"mixed trailing", "name_ ", "name"},
		{"empty", "", "unnamed"},
		{"only specials", "///", "unnamed"},
		{"only underscores", "___", "unnamed"},
		{"dots and dashes", "v1.2-rc", "v1.2-rc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Baseplate", "a/b:c", "  x  ", "_x_", "", "///", "a_ ", " _a_ b_ ",
		"café au lait", "weird\tname\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
