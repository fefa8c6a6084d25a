package answerhistory

import "testing"

func TestPolicy_Sensitive(t *testing.T) {
	p, err := NewPolicy("ssn", "payment.*")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		code string
		want bool
	}{
		{"ssn", true},
		{"payment.cardNumber", true},
		{"firstName", false},
	}
	for _, c := range cases {
		if got := p.Sensitive(c.code); got != c.want {
			t.Errorf("Sensitive(%q) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestPolicy_Redact(t *testing.T) {
	p, err := NewPolicy("ssn")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Redact("ssn", "123-45-6789"); got != "[REDACTED]" {
		t.Errorf("Redact(ssn) = %v, want [REDACTED]", got)
	}
	if got := p.Redact("firstName", "Ada"); got != "Ada" {
		t.Errorf("Redact(firstName) = %v, want unchanged", got)
	}
}

func TestPolicy_NilIsNeverSensitive(t *testing.T) {
	var p *Policy
	if p.Sensitive("ssn") {
		t.Error("nil policy should never flag a code as sensitive")
	}
	if got := p.Redact("ssn", "value"); got != "value" {
		t.Error("nil policy should never redact")
	}
}
