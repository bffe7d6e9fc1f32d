package tts

import "testing"

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		str     string
		wantErr bool
	}{
		{in: "critical", want: 300, str: "critical"},
		{in: " High ", want: 200, str: "high"},
		{in: "normal", want: 100, str: "normal"},
		{in: "low", want: 0, str: "low"},
		{in: "", want: 100, str: "normal"},
		{in: "42", want: 42, str: "42"},
		{in: "-7", want: -7, str: "-7"},
		{in: "urgent", wantErr: true},
		{in: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePriority(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := ResolvePriority(p); got != tt.want {
				t.Errorf("ResolvePriority() = %d, want %d", got, tt.want)
			}
			if got := p.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestPriorityIsSet(t *testing.T) {
	if (Priority{}).IsSet() {
		t.Error("zero priority should be unset")
	}
	if !PriorityLevel(LevelLow).IsSet() {
		t.Error("a level should be set")
	}
	if !PriorityScore(0).IsSet() {
		t.Error("a zero score should still be set")
	}
}

func TestPriorityResolverOverrides(t *testing.T) {
	r := NewPriorityResolver(map[Level]int{LevelHigh: 500, LevelNormal: 10})

	tests := []struct {
		p    Priority
		want int
	}{
		{PriorityLevel(LevelCritical), 300},
		{PriorityLevel(LevelHigh), 500},
		{PriorityLevel(LevelNormal), 10},
		{Priority{}, 10},
		{PriorityLevel("bogus"), 10},
		{PriorityScore(7), 7},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.p); got != tt.want {
			t.Errorf("Resolve(%s) = %d, want %d", tt.p, got, tt.want)
		}
	}

	if DefaultPriorityScores[LevelHigh] != 200 {
		t.Error("overrides must not modify the default scores")
	}
}

func TestZeroResolverUsesDefaults(t *testing.T) {
	var r PriorityResolver
	if got := r.Resolve(PriorityLevel(LevelCritical)); got != 300 {
		t.Errorf("Resolve(critical) = %d, want 300", got)
	}
}
