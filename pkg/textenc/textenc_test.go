package textenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		order    []string
		want     string
		wantEnc  string
		wantFail bool
	}{
		{name: "valid utf-8", raw: []byte("Café"), want: "Café", wantEnc: "utf-8"},
		{name: "bom stripped", raw: []byte("\xef\xbb\xbfID,Name"), want: "ID,Name", wantEnc: "utf-8"},
		{name: "cp1252 fallback", raw: []byte("Caf\xe9"), want: "Café", wantEnc: "windows-1252"},
		{name: "latin1 only", raw: []byte("Caf\xe9"), order: []string{"utf-8", "iso-8859-1"}, want: "Café", wantEnc: "iso-8859-1"},
		{name: "strict utf-8 only", raw: []byte("Caf\xe9"), order: []string{"utf-8"}, wantFail: true},
		{name: "unknown encoding", raw: []byte("x"), order: []string{"ebcdic-42"}, wantFail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, enc, err := Decode(tt.raw, tt.order)
			if tt.wantFail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
			assert.Equal(t, tt.wantEnc, enc)
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("UTF-8"))
	assert.True(t, Supported(" latin1 "))
	assert.True(t, Supported("gb18030"))
	assert.False(t, Supported("klingon"))
}
