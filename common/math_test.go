package common_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/w3agent/w3agent/common"
)

func TestFloatToBigInt(t *testing.T) {
	if got := common.FloatToBigInt(1, 4); got.Cmp(big.NewInt(10000)) != 0 {
		t.Fatalf("FloatToBigInt(1, 4) = %s, want 10000", got)
	}
	if got := common.FloatToBigInt(1.234, 4); got.Cmp(big.NewInt(12340)) != 0 {
		t.Fatalf("FloatToBigInt(1.234, 4) = %s, want 12340", got)
	}
	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := common.EthToWei(1.5); got.Cmp(want) != 0 {
		t.Fatalf("EthToWei(1.5) = %s, want %s", got, want)
	}
}

func TestBigToFloat(t *testing.T) {
	if got := common.BigToFloat(big.NewInt(1100), 2); got != 11 {
		t.Fatalf("BigToFloat(1100, 2) = %f, want 11", got)
	}
	if got := common.BigToFloat(big.NewInt(1100), 3); math.Abs(got-1.1) > 1e-12 {
		t.Fatalf("BigToFloat(1100, 3) = %f, want 1.1", got)
	}
}

func TestFloatStringRoundTrip(t *testing.T) {
	parsed, err := common.FloatStringToBig("1.25", 18)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	if got := common.BigToFloatString(parsed, 18); got != "1.25" {
		t.Fatalf("round trip gave %q, want 1.25", got)
	}
	if _, err := common.FloatStringToBig("not a number", 18); err == nil {
		t.Fatalf("expected an error for a non-numeric string")
	}
	if got := common.BigToFloatString(big.NewInt(0), 18); got != "0" {
		t.Fatalf("zero must render as 0, got %q", got)
	}
}
