package model

import (
    "encoding/json"
    "fmt"
)

// SeatLayout is the decoded form of a bus's seat_map_json document.
// Labels holds one entry per seat in row-major order; Types holds a
// matching seat type (e.g. "seater", "sleeper") per label.
type SeatLayout struct {
    Rows   int      `json:"rows"`
    Cols   int      `json:"cols"`
    Labels []string `json:"labels"`
    Types  []string `json:"types"`
}

// DecodeSeatMap parses a seat map JSON document and fills in
// defaults for missing pieces: 10 rows of 4 seats, labels of the
// form "1A".."10D", and a uniform "seater" type list.  A malformed
// document degrades to the default layout rather than failing, so a
// bus with broken layout data still renders a usable seat map.
func DecodeSeatMap(raw string) SeatLayout {
    var l SeatLayout
    if raw != "" {
        _ = json.Unmarshal([]byte(raw), &l)
    }
    if l.Rows <= 0 {
        l.Rows = 10
    }
    if l.Cols <= 0 {
        l.Cols = 4
    }
    if len(l.Labels) == 0 {
        l.Labels = make([]string, 0, l.Rows*l.Cols)
        for r := 1; r <= l.Rows; r++ {
            for c := 0; c < l.Cols; c++ {
                l.Labels = append(l.Labels, fmt.Sprintf("%d%c", r, 'A'+c))
            }
        }
    }
    if len(l.Types) != l.Rows*l.Cols {
        l.Types = make([]string, l.Rows*l.Cols)
        for i := range l.Types {
            l.Types[i] = "seater"
        }
    }
    return l
}
