package main

import (
	"testing"
)

func TestParseFloats(t *testing.T) {
	for _, s := range []string{"-84,24,-78,32", "-84 24 -78 32", "-84, 24, -78, 32"} {
		v, err := parseFloats(s)
		if err != nil {
			t.Errorf("%s: %v", s, err)
			continue
		}
		if len(v) != 4 || v[0] != -84 || v[1] != 24 || v[2] != -78 || v[3] != 32 {
			t.Errorf("%s: unexpected values %v", s, v)
		}
	}
	if _, err := parseFloats("-84,24,west,32"); err == nil {
		t.Errorf("expected error")
	}
}

func TestParseList(t *testing.T) {
	l := parseList("B4,B3, B2")
	if len(l) != 3 || l[0] != "B4" || l[1] != "B3" || l[2] != "B2" {
		t.Errorf("unexpected list %v", l)
	}
	if len(parseList("")) != 0 {
		t.Errorf("expected empty list")
	}
}

func TestParseSeed(t *testing.T) {
	seed, err := parseSeed(" 42 ")
	if err != nil {
		t.Fatal(err)
	}
	if *seed != 42 {
		t.Errorf("expected 42 found %d", *seed)
	}
	if _, err := parseSeed("4.2"); err == nil {
		t.Errorf("expected error")
	}
}
