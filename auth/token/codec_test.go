package token

import (
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/authmaster/auth/envelope"
	"github.com/kbukum/authmaster/auth/keys"
	"github.com/kbukum/authmaster/observability"
)

func newTestCodec(t *testing.T, opts ...Option) (*Codec, *keys.Registry) {
	t.Helper()
	reg := keys.NewRegistry()
	reg.Set(map[string]string{
		"userToken":  "togtokh.dev.cparking.user",
		"adminToken": "togtokh.dev.cparking.admin",
	})
	return NewCodec(reg, opts...), reg
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)
	payload := map[string]any{"user_id": "u-1", "user_role": "admin"}

	issued := codec.Issue(payload, "adminToken", NoExpiry)
	if !issued.Success || issued.Code != envelope.CodeOK || issued.Data == "" {
		t.Fatalf("issue failed: %+v", issued)
	}

	verified := codec.Verify(issued.Data, "adminToken")
	if !verified.Success || verified.Code != envelope.CodeOK {
		t.Fatalf("verify failed: %+v", verified)
	}
	data, ok := verified.Data.Data().(map[string]any)
	if !ok {
		t.Fatalf("expected map data, got %T", verified.Data.Data())
	}
	if data["user_id"] != "u-1" || data["user_role"] != "admin" {
		t.Errorf("payload mismatch: %v", data)
	}
	if _, ok := verified.Data.IssuedAt(); !ok {
		t.Error("expected iat claim")
	}
	if _, ok := verified.Data.ExpiresAt(); ok {
		t.Error("expected no exp claim without expiry")
	}
}

func TestVerify_StripsBearer(t *testing.T) {
	codec, _ := newTestCodec(t)
	issued := codec.Issue("x", "userToken", NoExpiry)

	for _, prefix := range []string{"Bearer ", "bearer ", "BEARER "} {
		if res := codec.Verify(prefix+issued.Data, "userToken"); !res.Success {
			t.Errorf("prefix %q: expected success, got %+v", prefix, res)
		}
	}
}

func TestVerify_KeyIsolation(t *testing.T) {
	codec, _ := newTestCodec(t)
	issued := codec.Issue("x", "userToken", NoExpiry)

	res := codec.Verify(issued.Data, "adminToken")
	if res.Success {
		t.Fatal("token issued under userToken must not verify under adminToken")
	}
	if res.Code != envelope.CodeUnauthorized || res.Data != nil {
		t.Errorf("unexpected failure envelope: %+v", res)
	}
}

func TestVerify_ExpiryEnforced(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	codec, reg := newTestCodec(t, WithClock(fixedClock(issuedAt)))
	issued := codec.Issue("x", "userToken", MustParseExpiry("1s"))
	if !issued.Success {
		t.Fatalf("issue failed: %+v", issued)
	}

	if res := codec.Verify(issued.Data, "userToken"); !res.Success {
		t.Fatalf("expected valid token before expiry, got %+v", res)
	}
	exp, ok := codec.Verify(issued.Data, "userToken").Data.ExpiresAt()
	if !ok || !exp.Equal(issuedAt.Add(time.Second)) {
		t.Errorf("unexpected exp %v", exp)
	}

	later := NewCodec(reg, WithClock(fixedClock(issuedAt.Add(2*time.Second))))
	res := later.Verify(issued.Data, "userToken")
	if res.Success {
		t.Fatal("expected expired token to fail")
	}
	if !strings.Contains(res.Message, "expired") {
		t.Errorf("expected expiry in message, got %q", res.Message)
	}
}

func TestVerify_NegativeExpiry(t *testing.T) {
	codec, _ := newTestCodec(t)
	issued := codec.Issue("x", "userToken", MustParseExpiry("-1s"))
	if !issued.Success {
		t.Fatalf("issue failed: %+v", issued)
	}
	if res := codec.Verify(issued.Data, "userToken"); res.Success {
		t.Fatal("token with past expiry must fail")
	}
}

func TestVerify_RejectsOtherAlgorithm(t *testing.T) {
	codec, _ := newTestCodec(t)
	forged, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, gojwt.MapClaims{"data": "x"}).
		SignedString([]byte("togtokh.dev.cparking.user"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if res := codec.Verify(forged, "userToken"); res.Success {
		t.Fatal("HS512 token must be rejected")
	}

	none, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{"data": "x"}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if res := codec.Verify(none, "userToken"); res.Success {
		t.Fatal("unsigned token must be rejected")
	}
}

func TestVerify_Failures(t *testing.T) {
	codec, _ := newTestCodec(t)
	good := codec.Issue("x", "userToken", NoExpiry).Data

	tests := []struct {
		name    string
		token   string
		keyName string
		message string
	}{
		{"undefined key", good, "ghostToken", "Key undefined"},
		{"missing token", "", "userToken", "Token missing"},
		{"bare bearer", "Bearer ", "userToken", "Token missing"},
		{"malformed", "not.a.jwt", "userToken", "token verification failed"},
		{"tampered", good + "x", "userToken", "token verification failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := codec.Verify(tc.token, tc.keyName)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Code != envelope.CodeUnauthorized {
				t.Errorf("expected code 401, got %s", res.Code)
			}
			if !strings.Contains(res.Message, tc.message) {
				t.Errorf("expected message containing %q, got %q", tc.message, res.Message)
			}
		})
	}
}

func TestIssue_Failures(t *testing.T) {
	codec, _ := newTestCodec(t)

	res := codec.Issue("x", "ghostToken", NoExpiry)
	if res.Success || res.Code != envelope.CodeInternal || res.Data != "" {
		t.Errorf("expected 500 for undefined key, got %+v", res)
	}
	if res.Message != "Key undefined" {
		t.Errorf("unexpected message %q", res.Message)
	}

	res = codec.Issue(make(chan int), "userToken", NoExpiry)
	if res.Success || res.Code != envelope.CodeInternal {
		t.Errorf("expected 500 for unserializable payload, got %+v", res)
	}

	res = codec.Issue("x", "userToken", Seconds(1e19))
	if res.Success || res.Code != envelope.CodeInternal || !strings.Contains(res.Message, "out of range") {
		t.Errorf("expected 500 for an expiry past the claim range, got %+v", res)
	}
}

func TestIssue_RecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	codec, _ := newTestCodec(t, WithTracer(tp.Tracer("test")))

	codec.Issue("p", "userToken", NoExpiry)
	codec.Issue("p", "ghostToken", NoExpiry)

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	want := []string{observability.OutcomeSuccess, observability.OutcomeFailure}
	for i, s := range spans {
		if s.Name() != observability.SpanIssue {
			t.Errorf("unexpected span name %q", s.Name())
		}
		var outcome string
		for _, a := range s.Attributes() {
			if string(a.Key) == observability.AttrOutcome {
				outcome = a.Value.AsString()
			}
		}
		if outcome != want[i] {
			t.Errorf("span %d: expected outcome %q, got %q", i, want[i], outcome)
		}
	}
}

func TestVerify_AfterRegistryReplacement(t *testing.T) {
	codec, reg := newTestCodec(t)
	reg.Set(map[string]string{"A": "x"})
	issued := codec.Issue("p", "A", NoExpiry)
	reg.Set(map[string]string{"B": "y"})

	if res := codec.Verify(issued.Data, "A"); res.Success {
		t.Fatal("A no longer exists and must fail")
	}
}

func TestPayloadField(t *testing.T) {
	p := Payload{
		"user_id": "top",
		"data":    map[string]any{"user_id": "nested", "user_role": "admin"},
	}
	if p.Field("user_id") != "top" {
		t.Errorf("top level should win, got %v", p.Field("user_id"))
	}
	if p.Field("user_role") != "admin" {
		t.Errorf("expected fallback to data, got %v", p.Field("user_role"))
	}
	if p.Field("missing") != nil {
		t.Error("expected nil for missing field")
	}
}

func TestDataAs(t *testing.T) {
	type session struct {
		UserID int    `json:"user_id"`
		Role   string `json:"user_role"`
	}
	codec, _ := newTestCodec(t)
	issued := codec.Issue(session{UserID: 7, Role: "admin"}, "adminToken", NoExpiry)
	res := codec.Verify(issued.Data, "adminToken")
	if !res.Success {
		t.Fatalf("verify failed: %+v", res)
	}

	s, err := DataAs[session](res.Data)
	if err != nil {
		t.Fatalf("DataAs: %v", err)
	}
	if s.UserID != 7 || s.Role != "admin" {
		t.Errorf("unexpected session %+v", s)
	}
}
