package firestore

import "testing"

func TestToFieldsStampsOwner(t *testing.T) {
	fields, err := toFields([]byte(`{"title":"rent","uid":"forged","amount":12.5}`), "alice")
	if err != nil {
		t.Fatalf("toFields() error = %v", err)
	}
	if fields[OwnerField] != "alice" {
		t.Errorf("toFields() owner = %v, want alice", fields[OwnerField])
	}
	if fields["amount"] != 12.5 {
		t.Errorf("toFields() amount = %v, want 12.5", fields["amount"])
	}
}

func TestToFieldsRejectsNonObject(t *testing.T) {
	if _, err := toFields([]byte(`[1,2]`), "alice"); err == nil {
		t.Fatalf("toFields() on an array must fail")
	}
}

type cents struct {
	Cents int64
}

func (c cents) MarshalJSON() ([]byte, error) { return []byte(`1.50`), nil }

func TestNormalizeUsesJSONForm(t *testing.T) {
	got, err := normalize(map[string]any{"amount": cents{150}, "done": true})
	if err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if got["amount"] != 1.5 || got["done"] != true {
		t.Errorf("normalize() = %v", got)
	}
}
