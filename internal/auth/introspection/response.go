package introspection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Flag is a boolean decoded the lenient way: the textual form of the JSON
// value, unquoted when it is a string, compared case-insensitively with
// "true". Any other value, including null, is false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = ParseFlag(data)
	return nil
}

// ParseFlag interprets a raw JSON value as a Flag.
func ParseFlag(raw json.RawMessage) Flag {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		text = s
	}

	return Flag(strings.EqualFold(text, "true"))
}

// Response is the decoded body of an introspection answer.
// Members with an unexpected JSON type are left at their zero value.
type Response struct {
	Active    Flag     `json:"active"`
	Username  string   `json:"username,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	Scope     string   `json:"scope,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Subject   string   `json:"sub,omitempty"`
	Issuer    string   `json:"iss,omitempty"`
	Audience  []string `json:"aud,omitempty"`
	JTI       string   `json:"jti,omitempty"`
	ExpiresAt int64    `json:"exp,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	NotBefore int64    `json:"nbf,omitempty"`
}

// Decode parses an introspection response body. Bodies that are not a JSON
// object, including null, arrays and scalars, yield ErrUnreadableResponse.
func Decode(body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrUnreadableResponse
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableResponse, err)
	}

	resp := &Response{
		Username:  stringMember(members, "username"),
		ClientID:  stringMember(members, "client_id"),
		Scope:     stringMember(members, "scope"),
		TokenType: stringMember(members, "token_type"),
		Subject:   stringMember(members, "sub"),
		Issuer:    stringMember(members, "iss"),
		Audience:  audienceMember(members),
		JTI:       stringMember(members, "jti"),
		ExpiresAt: timestampMember(members, "exp"),
		IssuedAt:  timestampMember(members, "iat"),
		NotBefore: timestampMember(members, "nbf"),
	}
	if raw, ok := members["active"]; ok {
		resp.Active = ParseFlag(raw)
	}

	return resp, nil
}

// IsActive reports whether the authorization server considers the token active.
func (r *Response) IsActive() bool {
	return r != nil && bool(r.Active)
}

// Scopes splits the space-delimited scope member.
func (r *Response) Scopes() []string {
	return strings.Fields(r.Scope)
}

// Expiry returns the exp member as a time, or the zero time when absent.
func (r *Response) Expiry() time.Time {
	return unixTime(r.ExpiresAt)
}

// IssuedTime returns the iat member as a time, or the zero time when absent.
func (r *Response) IssuedTime() time.Time {
	return unixTime(r.IssuedAt)
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func stringMember(members map[string]json.RawMessage, name string) string {
	raw, ok := members[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func timestampMember(members map[string]json.RawMessage, name string) int64 {
	raw, ok := members[name]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	if f <= 0 || f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// audienceMember accepts aud as a single string or an array of strings.
func audienceMember(members map[string]json.RawMessage) []string {
	raw, ok := members["aud"]
	if !ok {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	return many
}
