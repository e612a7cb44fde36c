package envelope

import (
	"errors"
	"testing"
	"time"
)

func validSignal() Signal {
	return Signal{RequiredUnits: 8, PricePerUnit: 0.20, Window: 50 * time.Millisecond}
}

func TestNew_ValidEnvelope(t *testing.T) {
	env, err := New(KindSignal, "grid-operator", validSignal())
	if err != nil {
		t.Fatalf("New returned error for valid envelope: %v", err)
	}
	if env.ID == "" || env.Sender != "grid-operator" || env.Kind != KindSignal || env.IssuedAt.IsZero() {
		t.Fatalf("New did not initialize fields correctly: %+v", env)
	}
	if env.IsSigned() {
		t.Error("fresh envelope must not carry a signature")
	}
}

func TestNew_StructuralErrors(t *testing.T) {
	if _, err := New(KindSignal, "", validSignal()); !errors.Is(err, ErrEmptySender) {
		t.Errorf("expected ErrEmptySender, got %v", err)
	}
	if _, err := New(KindSignal, "op", nil); !errors.Is(err, ErrNilPayload) {
		t.Errorf("expected ErrNilPayload, got %v", err)
	}
	if _, err := New(Kind("BOGUS"), "op", validSignal()); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}

	// Declared kind and payload variant must agree.
	if _, err := New(KindBid, "op", validSignal()); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}

func TestNew_PayloadValidation(t *testing.T) {
	cases := []struct {
		name    string
		kind    Kind
		payload Payload
	}{
		{"signal zero requirement", KindSignal, Signal{RequiredUnits: 0, PricePerUnit: 0.2, Window: time.Second}},
		{"signal zero window", KindSignal, Signal{RequiredUnits: 5, PricePerUnit: 0.2}},
		{"bid missing resource", KindBid, Bid{OfferedUnits: 5, PricePerUnit: 0.2}},
		{"bid negative units", KindBid, Bid{ResourceID: "der-1", OfferedUnits: -1, PricePerUnit: 0.2}},
		{"contract missing bidder", KindContract, Contract{ContractID: "c1", ResourceID: "der-1", AwardedUnits: 1, PricePerUnit: 0.2}},
		{"directive zero units", KindDirective, Directive{ContractID: "c1", ResourceID: "der-1", RequestedUnits: 0}},
		{"ack charge out of range", KindAck, Ack{ContractID: "c1", ResourceID: "der-1", ActualUnits: 1, NewStateOfCharge: 1.5, Timestamp: time.Now()}},
		{"ack zero timestamp", KindAck, Ack{ContractID: "c1", ResourceID: "der-1", ActualUnits: 1, NewStateOfCharge: 0.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.kind, "op", tc.payload); err == nil {
				t.Errorf("expected structural error for %s", tc.name)
			}
		})
	}
}

func TestEnvelope_PayloadAccessors(t *testing.T) {
	env, err := New(KindBid, "agent-der-1", Bid{ResourceID: "der-1", OfferedUnits: 4.5, PricePerUnit: 0.2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bid, ok := env.Bid()
	if !ok || bid.ResourceID != "der-1" || bid.OfferedUnits != 4.5 {
		t.Fatalf("Bid accessor failed: %+v ok=%v", bid, ok)
	}
	if _, ok := env.Signal(); ok {
		t.Error("Signal accessor must reject a bid payload")
	}
	if _, ok := env.Directive(); ok {
		t.Error("Directive accessor must reject a bid payload")
	}
}

func TestSigningBytes_Deterministic(t *testing.T) {
	env, err := New(KindSignal, "op", validSignal(), func(o *Options) {
		o.ID = "fixed-id"
		o.IssuedAt = time.Unix(1700000000, 0).UTC()
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, err := env.SigningBytes()
	if err != nil {
		t.Fatalf("SigningBytes: %v", err)
	}
	b, err := env.SigningBytes()
	if err != nil {
		t.Fatalf("SigningBytes: %v", err)
	}
	if string(a) != string(b) {
		t.Error("SigningBytes must be deterministic for the same envelope")
	}

	// The canonical form covers the payload: a different payload changes it.
	env2 := env
	env2.Payload = Signal{RequiredUnits: 9, PricePerUnit: 0.20, Window: 50 * time.Millisecond}
	c, err := env2.SigningBytes()
	if err != nil {
		t.Fatalf("SigningBytes: %v", err)
	}
	if string(a) == string(c) {
		t.Error("SigningBytes must change when the payload changes")
	}
}

func TestKind_Topic(t *testing.T) {
	pairs := map[Kind]string{
		KindSignal:    TopicSignal,
		KindBid:       TopicBids,
		KindContract:  TopicContracts,
		KindDirective: TopicDispatch,
		KindAck:       TopicAcks,
	}
	for kind, topic := range pairs {
		if got := kind.Topic(); got != topic {
			t.Errorf("Topic(%s) = %q, want %q", kind, got, topic)
		}
	}
	if got := Kind("BOGUS").Topic(); got != "" {
		t.Errorf("unknown kind topic = %q, want empty", got)
	}
}
