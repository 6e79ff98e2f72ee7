package repository

import "testing"

func TestDecodeSeatDoc(t *testing.T) {
	seats := decodeSeatDoc(`["1A","1B","2C"]`)
	if len(seats) != 3 || seats[0] != "1A" || seats[2] != "2C" {
		t.Fatalf("seats = %v, want [1A 1B 2C]", seats)
	}
}

func TestDecodeSeatDocMalformed(t *testing.T) {
	if seats := decodeSeatDoc(`{"not":"a list"}`); seats != nil {
		t.Fatalf("malformed doc should decode to nil, got %v", seats)
	}
	if seats := decodeSeatDoc(``); seats != nil {
		t.Fatalf("empty doc should decode to nil, got %v", seats)
	}
}
