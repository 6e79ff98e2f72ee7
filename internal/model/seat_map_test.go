package model

import "testing"

func TestDecodeSeatMapDefaults(t *testing.T) {
    l := DecodeSeatMap("")
    if l.Rows != 10 || l.Cols != 4 {
        t.Fatalf("layout = %dx%d, want 10x4", l.Rows, l.Cols)
    }
    if len(l.Labels) != 40 {
        t.Fatalf("labels = %d, want 40", len(l.Labels))
    }
    if l.Labels[0] != "1A" || l.Labels[39] != "10D" {
        t.Fatalf("label bounds = %q..%q, want 1A..10D", l.Labels[0], l.Labels[39])
    }
    for _, typ := range l.Types {
        if typ != "seater" {
            t.Fatalf("default type = %q, want seater", typ)
        }
    }
}

func TestDecodeSeatMapCustomLayout(t *testing.T) {
    l := DecodeSeatMap(`{"rows":2,"cols":2,"labels":["L1","L2","U1","U2"],"types":["sleeper","sleeper","sleeper","sleeper"]}`)
    if l.Rows != 2 || l.Cols != 2 {
        t.Fatalf("layout = %dx%d, want 2x2", l.Rows, l.Cols)
    }
    if l.Labels[2] != "U1" {
        t.Fatalf("labels not preserved: %v", l.Labels)
    }
    if l.Types[0] != "sleeper" {
        t.Fatalf("types not preserved: %v", l.Types)
    }
}

func TestDecodeSeatMapMalformedFallsBack(t *testing.T) {
    l := DecodeSeatMap(`{"rows": "oops"`)
    if l.Rows != 10 || l.Cols != 4 || len(l.Labels) != 40 {
        t.Fatal("malformed document should degrade to the default layout")
    }
}
