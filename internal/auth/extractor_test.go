package auth

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtractAccessToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer", header: "Bearer abc123", want: "abc123"},
		{name: "lower case scheme", header: "bearer abc123", want: "abc123"},
		{name: "upper case scheme", header: "BEARER abc123", want: "abc123"},
		{name: "mixed case scheme", header: "bEaReR abc123", want: "abc123"},
		{name: "surrounding whitespace", header: "  Bearer abc123 \t\n", want: "abc123"},
		{name: "opaque token kept verbatim", header: "Bearer a.b-c_d~e+f/g==", want: "a.b-c_d~e+f/g=="},
		{name: "basic scheme", header: "Basic abc123", wantErr: true},
		{name: "scheme only", header: "Bearer", wantErr: true},
		{name: "scheme with trailing space", header: "Bearer ", wantErr: true},
		{name: "three segments", header: "Bearer a b", wantErr: true},
		{name: "double space", header: "Bearer  abc", wantErr: true},
		{name: "tab separator", header: "Bearer\tabc", wantErr: true},
		{name: "empty", header: "", wantErr: true},
		{name: "whitespace only", header: "   ", wantErr: true},
		{name: "token only", header: "abc123", wantErr: true},
		{name: "short value", header: "Bear", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := ExtractAccessToken(tt.header)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAuthorizationHeader)
				assert.ErrorIs(t, err, ErrAuthenticationFailed)
				assert.Empty(t, token)

				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.header, authErr.Header)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestExtractAccessToken_ErrorDoesNotLeakToken(t *testing.T) {
	t.Parallel()

	_, err := ExtractAccessToken("Bearer super-secret-token extra")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "super-secret-token")
	assert.Contains(t, err.Error(), "Bearer <redacted")
}

func TestAuthorizationHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers HeaderGetter
		want    string
		wantErr bool
	}{
		{name: "nil getter", headers: nil, wantErr: true},
		{name: "empty map", headers: HeaderMap{}, wantErr: true},
		{name: "other headers only", headers: HeaderMap{"Accept": "application/json"}, wantErr: true},
		{name: "lower case key is a different key", headers: HeaderMap{"authorization": "Bearer x"}, wantErr: true},
		{name: "present", headers: HeaderMap{"Authorization": "Bearer x"}, want: "Bearer x"},
		{name: "present but empty", headers: HeaderMap{"Authorization": ""}, want: ""},
		{name: "http header", headers: HTTPHeader(http.Header{"Authorization": {"Bearer y", "Bearer z"}}), want: "Bearer y"},
		{name: "http header without values", headers: HTTPHeader(http.Header{"Authorization": {}}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := AuthorizationHeader(tt.headers)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingAuthorizationHeader)
				assert.ErrorIs(t, err, ErrAuthenticationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPHeader_CanonicalizedByNetHTTP(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("authorization", "Bearer abc")

	got, ok := HTTPHeader(h).Lookup(HeaderAuthorization)
	assert.True(t, ok)
	assert.Equal(t, "Bearer abc", got)
}

var tokenGen = rapid.StringMatching(`[A-Za-z0-9._~+/=-]{1,64}`)

func randomCase(t *rapid.T, s string) string {
	upper := rapid.SliceOfN(rapid.Bool(), len(s), len(s)).Draw(t, "upper")
	var b strings.Builder
	for i, r := range s {
		if upper[i] {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteString(string(r))
		}
	}
	return b.String()
}

// Any casing of the scheme followed by one space and an opaque token yields
// that token.
func TestExtractAccessToken_BearerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		token := tokenGen.Draw(t, "token")
		scheme := randomCase(t, BearerScheme)
		pad := rapid.StringMatching(`[ \t]{0,3}`).Draw(t, "pad")

		got, err := ExtractAccessToken(pad + scheme + " " + token + pad)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != token {
			t.Fatalf("got %q, want %q", got, token)
		}
	})
}

// More than one token segment is always rejected.
func TestExtractAccessToken_ExtraSegmentsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		segments := rapid.SliceOfN(tokenGen, 2, 5).Draw(t, "segments")
		header := "Bearer " + strings.Join(segments, " ")

		_, err := ExtractAccessToken(header)
		if !IsAuthError(err) || ErrorKind(err) != ErrInvalidAuthorizationHeader {
			t.Fatalf("expected invalid authorization header, got %v", err)
		}
	})
}

// Headers whose scheme is not bearer are always rejected.
func TestExtractAccessToken_OtherSchemeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scheme := rapid.SampledFrom([]string{"Basic", "Digest", "Negotiate", "Token", "ApiKey", "Bea"}).Draw(t, "scheme")
		token := tokenGen.Draw(t, "token")

		_, err := ExtractAccessToken(scheme + " " + token)
		if ErrorKind(err) != ErrInvalidAuthorizationHeader {
			t.Fatalf("expected invalid authorization header, got %v", err)
		}
	})
}
