package protocol

import (
	"errors"
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []int64{0, -1, 1, 10, -42, 65535, math.MaxInt64, math.MinInt64} {
		got, err := Decode(Encode(v))
		if err != nil {
			t.Fatalf("Decode(Encode(%d)) error: %v", v, err)
		}
		if got != v {
			t.Fatalf("Decode(Encode(%d)) = %d", v, got)
		}
	}
}

func TestEncodeIsPlainDecimal(t *testing.T) {
	if got := string(Encode(-17)); got != "-17" {
		t.Fatalf("Encode(-17) = %q, want %q", got, "-17")
	}
	if got := string(Encode(0)); got != "0" {
		t.Fatalf("Encode(0) = %q, want %q", got, "0")
	}
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	rows := []struct {
		in   string
		want int64
	}{
		{"5", 5},
		{" 15\n", 15},
		{"\t-1\r\n", -1},
		{"0 ", 0},
	}
	for _, r := range rows {
		got, err := Decode([]byte(r.in))
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", r.in, err)
		}
		if got != r.want {
			t.Fatalf("Decode(%q) = %d, want %d", r.in, got, r.want)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "hello", "1.5", "12abc", "--1", "99999999999999999999"} {
		if _, err := Decode([]byte(in)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Decode(%q) err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestClassify(t *testing.T) {
	rows := []struct {
		v    int64
		want Command
	}{
		{0, CommandAverage},
		{-1, CommandTerminate},
		{-2, CommandValue},
		{1, CommandValue},
		{1000, CommandValue},
	}
	for _, r := range rows {
		if got := Classify(r.v); got != r.want {
			t.Fatalf("Classify(%d) = %v, want %v", r.v, got, r.want)
		}
	}
}
