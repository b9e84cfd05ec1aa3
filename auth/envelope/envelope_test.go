package envelope

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	apperrors "github.com/kbukum/authmaster/errors"
)

func TestOK(t *testing.T) {
	r := OK("tok")
	if !r.Success || r.Code != CodeOK || r.Message != MessageSuccess || r.Data != "tok" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestFailMarshalsNullData(t *testing.T) {
	r := Result[string]{Data: "leak", Code: CodeUnauthorized, Message: "nope"}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := m["data"]; !ok || v != nil {
		t.Errorf("expected data null, got %v", m["data"])
	}
	if m["success"] != false || m["code"] != "401" {
		t.Errorf("unexpected body %v", m)
	}
}

func TestFromError(t *testing.T) {
	r := FromError[string](CodeInternal, apperrors.UndefinedKey("x"))
	if r.Success || r.Message != "Key undefined" || r.Code != CodeInternal {
		t.Errorf("unexpected result %+v", r)
	}
	r = FromError[string](CodeUnauthorized, stderrors.New("plain"))
	if r.Message != "plain" {
		t.Errorf("unexpected message %q", r.Message)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeOK, http.StatusOK},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{"garbage", http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := (Result[any]{Code: tc.code}).Status(); got != tc.want {
			t.Errorf("code %q: expected %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var r Result[map[string]string]
	body := `{"data":{"username":"alice"},"success":true,"message":"success","code":"200"}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Data["username"] != "alice" || !r.Success {
		t.Errorf("unexpected result %+v", r)
	}

	var failed Result[string]
	if err := json.Unmarshal([]byte(`{"data":null,"success":false,"message":"x","code":"401"}`), &failed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if failed.Data != "" || failed.Success {
		t.Errorf("unexpected result %+v", failed)
	}
}

func TestUnauthorized(t *testing.T) {
	b, _ := json.Marshal(Unauthorized())
	want := `{"data":null,"success":false,"message":"Unauthorized","code":"401"}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}
