package validation

import (
	"strings"
	"testing"
)

// --- ValidateUTF8 Tests ---

func TestValidateUTF8_Valid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ascii", "hello world"},
		{"empty", ""},
		{"unicode", "Hello, 世界"},
		{"emoji", "Hello 👋🏻"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUTF8("field", tt.value)
			if err != nil {
				t.Errorf("ValidateUTF8(%q) = %v, want nil", tt.value, err)
			}
		})
	}
}

func TestValidateUTF8_Invalid(t *testing.T) {
	invalidUTF8 := string([]byte{0xff, 0xfe})

	err := ValidateUTF8("title", invalidUTF8)
	if err == nil {
		t.Fatal("ValidateUTF8(invalid) = nil, want error")
	}
	if err.Field != "title" {
		t.Errorf("error.Field = %q, want %q", err.Field, "title")
	}
}

// --- ValidateNoNullBytes Tests ---

func TestValidateNoNullBytes(t *testing.T) {
	if err := ValidateNoNullBytes("field", "hello world"); err != nil {
		t.Errorf("ValidateNoNullBytes(clean) = %v, want nil", err)
	}
	err := ValidateNoNullBytes("description", "hello\x00world")
	if err == nil {
		t.Fatal("ValidateNoNullBytes(with null) = nil, want error")
	}
	if err.Field != "description" {
		t.Errorf("error.Field = %q, want %q", err.Field, "description")
	}
}

// --- ValidateMaxLength Tests ---

func TestValidateMaxLength(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"within", strings.Repeat("a", 100), false},
		{"at limit", strings.Repeat("a", 200), false},
		{"exceeds", strings.Repeat("a", 201), true},
		{"multibyte at limit", strings.Repeat("👋", 200), false},
		{"multibyte exceeds", strings.Repeat("👋", 201), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMaxLength("title", tt.value, 200)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMaxLength() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Message, "200") {
				t.Errorf("message = %q, want limit in message", err.Message)
			}
		})
	}
}

// --- ValidateRequired Tests ---

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("title", "value"); err != nil {
		t.Errorf("ValidateRequired(value) = %v, want nil", err)
	}
	for _, value := range []string{"", " ", "\t", "\n", "  \t\n  "} {
		err := ValidateRequired("title", value)
		if err == nil {
			t.Errorf("ValidateRequired(%q) = nil, want error", value)
			continue
		}
		if err.Field != "title" || err.Message != "is required" {
			t.Errorf("ValidateRequired(%q) = %+v", value, err)
		}
	}
}

// --- ValidateEnum Tests ---

func TestValidateEnum(t *testing.T) {
	allowed := []string{"upvote", "downvote"}

	if err := ValidateEnum("action", "downvote", allowed); err != nil {
		t.Errorf("ValidateEnum(downvote) = %v, want nil", err)
	}
	err := ValidateEnum("action", "UPVOTE", allowed)
	if err == nil {
		t.Fatal("ValidateEnum(UPVOTE) = nil, want error (case sensitive)")
	}
	if !strings.Contains(err.Message, "upvote, downvote") {
		t.Errorf("message = %q, want allowed values listed", err.Message)
	}
}

// --- ValidatePositive Tests ---

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		value   int64
		wantErr bool
	}{
		{1, false},
		{1 << 40, false},
		{0, true},
		{-5, true},
	}
	for _, tt := range tests {
		err := ValidatePositive("featureId", tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePositive(%d) = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

// --- ValidateEmail Tests ---

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"simple", "user@example.com", false},
		{"plus tag", "user+roadmap@example.co.uk", false},
		{"surrounding space", "  user@example.com  ", false},
		{"empty passes", "", false},
		{"blank passes", "   ", false},
		{"missing at", "user.example.com", true},
		{"missing domain", "user@", true},
		{"spaces inside", "us er@example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail("email", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

// --- Collector Tests ---

func TestCollector_AddNil(t *testing.T) {
	c := &Collector{}
	c.Add(nil)
	if c.HasErrors() {
		t.Error("HasErrors() = true after Add(nil)")
	}
	if len(c.Errors()) != 0 {
		t.Errorf("Errors() = %v, want empty", c.Errors())
	}
}

func TestCollector_PreservesOrder(t *testing.T) {
	c := &Collector{}
	c.Add(&ValidationError{Field: "f1", Message: "m1"})
	c.Add(nil)
	c.Add(&ValidationError{Field: "f2", Message: "m2"})

	if !c.HasErrors() {
		t.Fatal("HasErrors() = false, want true")
	}
	errs := c.Errors()
	if len(errs) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(errs))
	}
	if errs[0].Field != "f1" || errs[1].Field != "f2" {
		t.Errorf("Errors() = %+v, want f1 then f2", errs)
	}
}
