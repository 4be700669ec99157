package domain

import "testing"

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		name    string
		dollars float64
		want    int64
		wantErr bool
	}{
		{"whole dollars", 100.0, 10000, false},
		{"two decimals", 100.25, 10025, false},
		{"one decimal", 1.1, 110, false},
		{"zero", 0, 0, false},
		{"negative", -5.50, -550, false},
		{"float artifact", 1.10, 110, false},
		{"three decimals", 10.001, 0, true},
		{"sub-cent", 0.005, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DollarsToCents(tt.dollars)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DollarsToCents(%v) error = %v, wantErr %v", tt.dollars, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("DollarsToCents(%v) = %d, want %d", tt.dollars, got, tt.want)
			}
		})
	}
}

func TestCentsToDollars(t *testing.T) {
	if got := CentsToDollars(10025); got != 100.25 {
		t.Errorf("CentsToDollars(10025) = %v, want 100.25", got)
	}
	if got := CentsToDollars(-550); got != -5.5 {
		t.Errorf("CentsToDollars(-550) = %v, want -5.5", got)
	}
}

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		tick  int64
		want  int64
	}{
		{"exact", 10000, 1, 10000},
		{"round down", 10000.4, 1, 10000},
		{"round up", 10000.6, 1, 10001},
		{"five cent tick", 10002, 5, 10000},
		{"five cent tick up", 10003, 5, 10005},
		{"below one tick", 0.2, 5, 5},
		{"negative price", -3, 1, 1},
		{"zero tick falls back", 10000.4, 0, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundToTick(tt.price, tt.tick); got != tt.want {
				t.Errorf("RoundToTick(%v, %d) = %d, want %d", tt.price, tt.tick, got, tt.want)
			}
		})
	}
}
