package models

import (
	"testing"
)

func TestNormalizeCouponCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "TESTE10", "TESTE10"},
		{"lowercase", "teste10", "TESTE10"},
		{"surrounding whitespace", "  teste10 ", "TESTE10"},
		{"mixed case", "TeStE10", "TESTE10"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCouponCode(tt.in); got != tt.want {
				t.Errorf("NormalizeCouponCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoupon_DiscountAmount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   Coupon
		rawTotal int
		want     int
	}{
		{
			name:     "percent 10 of 10000",
			coupon:   Coupon{Kind: DiscountPercent, Value: 10},
			rawTotal: 10000,
			want:     1000,
		},
		{
			name:     "percent 100 takes everything",
			coupon:   Coupon{Kind: DiscountPercent, Value: 100},
			rawTotal: 5000,
			want:     5000,
		},
		{
			name:     "percent rounds down",
			coupon:   Coupon{Kind: DiscountPercent, Value: 33},
			rawTotal: 1000,
			want:     330,
		},
		{
			name:     "fixed below raw total",
			coupon:   Coupon{Kind: DiscountFixed, Value: 1500},
			rawTotal: 10000,
			want:     1500,
		},
		{
			name:     "fixed capped at raw total",
			coupon:   Coupon{Kind: DiscountFixed, Value: 20000},
			rawTotal: 10000,
			want:     10000,
		},
		{
			name:     "zero raw total",
			coupon:   Coupon{Kind: DiscountFixed, Value: 500},
			rawTotal: 0,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coupon.DiscountAmount(tt.rawTotal); got != tt.want {
				t.Errorf("DiscountAmount(%d) = %d, want %d", tt.rawTotal, got, tt.want)
			}
		})
	}
}

func TestCoupon_Validate(t *testing.T) {
	tests := []struct {
		name    string
		coupon  Coupon
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid percent coupon",
			coupon:  Coupon{Code: "TESTE10", Kind: DiscountPercent, Value: 10},
			wantErr: false,
		},
		{
			name:    "valid fixed coupon",
			coupon:  Coupon{Code: "FLAT500", Kind: DiscountFixed, Value: 500},
			wantErr: false,
		},
		{
			name:    "percent over 100 rejected",
			coupon:  Coupon{Code: "TOOMUCH", Kind: DiscountPercent, Value: 101},
			wantErr: true,
			errMsg:  "percent coupon value must be between 1 and 100",
		},
		{
			name:    "percent zero rejected",
			coupon:  Coupon{Code: "ZERO", Kind: DiscountPercent, Value: 0},
			wantErr: true,
			errMsg:  "percent coupon value must be between 1 and 100",
		},
		{
			name:    "fixed negative rejected",
			coupon:  Coupon{Code: "NEG", Kind: DiscountFixed, Value: -5},
			wantErr: true,
			errMsg:  "fixed coupon value must be positive",
		},
		{
			name:    "missing code",
			coupon:  Coupon{Code: "", Kind: DiscountPercent, Value: 10},
			wantErr: true,
			errMsg:  "coupon code is required",
		},
		{
			name:    "invalid kind",
			coupon:  Coupon{Code: "WEIRD", Kind: "bogus", Value: 10},
			wantErr: true,
			errMsg:  "invalid coupon kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if err.Error() != tt.errMsg {
					t.Errorf("error = %q, want %q", err.Error(), tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
