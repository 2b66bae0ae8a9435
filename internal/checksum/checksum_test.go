package checksum

import (
	"strings"
	"testing"
)

func TestSumMatchesSumReader(t *testing.T) {
	data := `{"version":"1.0","notes":[]}`
	want := Sum([]byte(data))
	got, err := SumReader(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("SumReader = %s, want %s", got, want)
	}
	if len(want) != 64 {
		t.Errorf("digest length = %d, want 64", len(want))
	}
}

func TestSumDiffers(t *testing.T) {
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs produced the same digest")
	}
}
