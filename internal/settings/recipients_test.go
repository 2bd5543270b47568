package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		invalid []string
	}{
		{name: "single", in: "a@b.com", want: []string{"a@b.com"}},
		{name: "trims and skips blanks", in: " a@b.com , ,c.d@e-f.org,", want: []string{"a@b.com", "c.d@e-f.org"}},
		{name: "drops duplicates ignoring case", in: "a@b.com, A@B.com", want: []string{"a@b.com"}},
		{name: "unicode local part", in: "müller@example.de", want: []string{"müller@example.de"}},
		{name: "unicode domain", in: "info@bücher.de", want: []string{"info@bücher.de"}},
		{name: "malformed", in: "not-an-email", invalid: []string{"not-an-email"}},
		{name: "one bad entry rejects all", in: "a@b.com, bad@, c@d.com, @x.io", invalid: []string{"bad@", "@x.io"}},
		{name: "no tld", in: "a@b", invalid: []string{"a@b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecipients(tt.in)
			if tt.invalid != nil {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.invalid, ve.Invalid)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecipientsRequiresOne(t *testing.T) {
	for _, in := range []string{"", "   ", ", ,"} {
		_, err := ParseRecipients(in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "input %q", in)
		assert.Equal(t, "recipients", ve.Field)
	}
}

func TestRecipientBookCopies(t *testing.T) {
	var b RecipientBook
	assert.Empty(t, b.List())

	in := []string{"a@b.com"}
	b.Set(in)
	in[0] = "mutated@b.com"

	out := b.List()
	assert.Equal(t, []string{"a@b.com"}, out)
	out[0] = "changed@b.com"
	assert.Equal(t, []string{"a@b.com"}, b.List())
}
