package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeReservedCharacters(t *testing.T) {
	for _, c := range reserved {
		in := string(c)
		assert.Equal(t, "\\"+in, Escape(in), "character %q must be escaped", in)
	}
}

func TestEscapeLeavesOtherTextAlone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain ascii", "hello world", "hello world"},
		{"cyrillic", "Привет, мир", "Привет, мир"},
		{"emoji", "🌎 тут", "🌎 тут"},
		{"mixed", "v1.2 (beta)!", "v1\\.2 \\(beta\\)\\!"},
		{"all reserved", "_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestEscapeLeavesNoUnescapedReserved(t *testing.T) {
	in := "a_b*c[d]e(f)g~h`i>j#k+l-m=n|o{p}q.r!s"
	out := Escape(in)

	for i := 0; i < len(out); i++ {
		if strings.IndexByte(reserved, out[i]) >= 0 {
			if i == 0 || out[i-1] != '\\' {
				t.Fatalf("unescaped reserved character %q at %d in %q", out[i], i, out)
			}
		}
	}
}

// Escaping is intentionally not idempotent: reserved characters stay in the
// output, so a second pass escapes them again.
func TestEscapeNotIdempotent(t *testing.T) {
	in := "price: 9.99!"
	once := Escape(in)
	twice := Escape(once)

	assert.NotEqual(t, once, twice)
	assert.Equal(t, "price: 9\\.99\\!", once)
}

func TestEscapeIdempotentOnlyWithoutReserved(t *testing.T) {
	in := "просто текст"
	assert.Equal(t, Escape(in), Escape(Escape(in)))
}
