package cache

import (
	"reflect"
	"testing"
)

func TestKeys(t *testing.T) {
	if got := Keys(0); !reflect.DeepEqual(got, []string{"market:snapshot:all"}) {
		t.Errorf("Unexpected global keys: %v", got)
	}
	want := []string{"market:snapshot:all", "market:snapshot:12", "market:snapshot:12:bets", "market:snapshot:12:payouts"}
	if got := Keys(12); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
