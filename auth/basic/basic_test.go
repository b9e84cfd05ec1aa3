package basic

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/kbukum/authmaster/auth/envelope"
	"golang.org/x/crypto/bcrypt"
)

func TestParse_Success(t *testing.T) {
	res := Parse("Basic " + base64.StdEncoding.EncodeToString([]byte("togtokh:1234")))
	if !res.Success || res.Code != envelope.CodeOK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Data.Username != "togtokh" || res.Data.Password != "1234" {
		t.Errorf("unexpected credentials %+v", res.Data)
	}
}

func TestParse_OnlyFirstColonSplits(t *testing.T) {
	res := Parse(Header("alice", "p@ss:word"))
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Data.Username != "alice" || res.Data.Password != "p@ss:word" {
		t.Errorf("unexpected credentials %+v", res.Data)
	}
}

func TestParse_EmptyParts(t *testing.T) {
	res := Parse(Header("", ""))
	if !res.Success || res.Data.Username != "" || res.Data.Password != "" {
		t.Errorf("expected empty pair to parse, got %+v", res)
	}
}

func TestParse_Unpadded(t *testing.T) {
	value := base64.RawStdEncoding.EncodeToString([]byte("bob:pw"))
	res := Parse("Basic " + value)
	if !res.Success || res.Data.Username != "bob" {
		t.Errorf("expected unpadded value to parse, got %+v", res)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		code    string
		message string
	}{
		{"missing header", "", envelope.CodeBadRequest, "Missing header"},
		{"wrong scheme", "Bearer abc", envelope.CodeBadRequest, "Invalid header"},
		{"lowercase scheme", "basic " + base64.StdEncoding.EncodeToString([]byte("a:b")), envelope.CodeBadRequest, "Invalid header"},
		{"scheme only", "Basic", envelope.CodeBadRequest, "Invalid header"},
		{"scheme and space", "Basic ", envelope.CodeBadRequest, "Invalid header"},
		{"double space", "Basic  " + base64.StdEncoding.EncodeToString([]byte("a:b")), envelope.CodeBadRequest, "Invalid header"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("nocolon")), envelope.CodeBadRequest, "Invalid Basic payload"},
		{"bad base64", "Basic !!!not-base64!!!", envelope.CodeInternal, "Invalid Basic encoding"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Parse(tc.header)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, res.Code)
			}
			if len(res.Message) < len(tc.message) || res.Message[:len(tc.message)] != tc.message {
				t.Errorf("expected message starting %q, got %q", tc.message, res.Message)
			}
			if res.Data != (Credentials{}) {
				t.Errorf("expected zero data, got %+v", res.Data)
			}
		})
	}
}

func TestBcryptUsers(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	v := NewBcryptUsers(map[string]string{"alice": hash})

	if err := v.Verify("alice", "s3cret-pass"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
	if err := v.Verify("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := v.Verify("mallory", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if v.Len() != 1 {
		t.Errorf("expected 1 user, got %d", v.Len())
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := HashPassword(string(long), bcrypt.MinCost); err == nil {
		t.Error("expected error for password over 72 bytes")
	}
}

func TestVerifierFunc(t *testing.T) {
	var v Verifier = VerifierFunc(func(u, p string) error {
		if u == "x" {
			return nil
		}
		return ErrInvalidCredentials
	})
	if v.Verify("x", "") != nil {
		t.Error("expected nil")
	}
}
