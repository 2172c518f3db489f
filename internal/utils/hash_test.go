package utils

import "testing"

func TestHashStringToUint64_Deterministic(t *testing.T) {
	if HashStringToUint64("water leak") != HashStringToUint64("water leak") {
		t.Fatal("hash must be deterministic")
	}
	if HashStringToUint64("water leak") == HashStringToUint64("power out") {
		t.Fatal("distinct inputs should not collide")
	}
}

func TestBucket(t *testing.T) {
	inputs := []string{"", "a", "water leak", "no power in the kitchen"}
	for _, in := range inputs {
		got := Bucket(in, 4)
		if got < 0 || got >= 4 {
			t.Fatalf("Bucket(%q, 4) = %d, out of range", in, got)
		}
		if got != Bucket(in, 4) {
			t.Fatalf("Bucket(%q, 4) not deterministic", in)
		}
	}
	if Bucket("anything", 0) != 0 {
		t.Fatal("non-positive n must map to 0")
	}
}
