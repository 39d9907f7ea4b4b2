package codec

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/internal/testutil"
)

func TestDecode(t *testing.T) {
	png := testutil.PNG(8, 8)

	tests := []struct {
		name        string
		encoded     string
		wantMIME    string
		wantSize    int64
		wantErr     bool
		errContains string
	}{
		{
			name:     "declared png",
			encoded:  testutil.DataURL("image/png", png),
			wantMIME: "image/png",
			wantSize: int64(len(png)),
		},
		{
			name:     "declared jpeg kept even for png bytes",
			encoded:  testutil.DataURL("image/jpeg", png),
			wantMIME: "image/jpeg",
			wantSize: int64(len(png)),
		},
		{
			name:     "empty mediatype detected from bytes",
			encoded:  testutil.DataURL("", png),
			wantMIME: "image/png",
			wantSize: int64(len(png)),
		},
		{
			name:     "octet-stream replaced by detection",
			encoded:  testutil.DataURL("application/octet-stream", png),
			wantMIME: "image/png",
			wantSize: int64(len(png)),
		},
		{
			name:     "prefix parameters ignored",
			encoded:  "data:image/png;name=page;base64," + base64.StdEncoding.EncodeToString(png),
			wantMIME: "image/png",
			wantSize: int64(len(png)),
		},
		{
			name:        "missing scheme",
			encoded:     "image/png;base64,AAAA",
			wantErr:     true,
			errContains: "missing data: scheme",
		},
		{
			name:        "missing base64 marker",
			encoded:     "data:image/png,AAAA",
			wantErr:     true,
			errContains: "missing base64 marker",
		},
		{
			name:        "invalid base64 body",
			encoded:     "data:image/png;base64,not-base64!!",
			wantErr:     true,
			errContains: "invalid base64 body",
		},
		{
			name:        "empty payload",
			encoded:     "data:image/png;base64,",
			wantErr:     true,
			errContains: "empty payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := Decode(tt.encoded)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.True(t, errors.IsMalformedInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, item.MIME)
			assert.Equal(t, tt.wantSize, item.Size())
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	png := testutil.PNG(16, 4)

	item, err := Decode(testutil.PNGDataURL(16, 4))
	require.NoError(t, err)
	assert.Equal(t, png, item.Data)
}

func TestDecodeIsDeterministic(t *testing.T) {
	encoded := testutil.PNGDataURL(4, 4)

	first, err := Decode(encoded)
	require.NoError(t, err)
	second, err := Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDecodeLargePayload(t *testing.T) {
	data := strings.Repeat("slide page bytes ", 4096)
	item, err := Decode(testutil.DataURL("text/plain", []byte(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), item.Size())
	assert.Equal(t, "text/plain", item.MIME)
}
