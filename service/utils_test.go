package service

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

func TestPermanent(t *testing.T) {
	err := fmt.Errorf("Permanent error")
	if Temporary(err) {
		t.Fail()
	}
	err = &url.Error{Err: err}
	if Temporary(err) {
		t.Fail()
	}
}

func TestTemporary(t *testing.T) {
	err := MakeTemporary(fmt.Errorf("Temporary error"))
	if !Temporary(err) {
		t.Fail()
	}
	err = fmt.Errorf("Warp: %w", err)
	if !Temporary(err) {
		t.Fail()
	}
	if !Temporary(context.Canceled) {
		t.Fail()
	}
	if !Temporary(context.DeadlineExceeded) {
		t.Fail()
	}
	err = fmt.Errorf("Warp: %w", &url.Error{Err: err})
	if !Temporary(err) {
		t.Fail()
	}
}

func TestStringSet(t *testing.T) {
	ss := NewStringSet("B4", "B3", "B2", "B4")
	if len(ss) != 3 {
		t.Errorf("expected 3 elements, got %d", len(ss))
	}
	if !ss.Exists("B3") || ss.Exists("B8") {
		t.Errorf("unexpected content %v", ss.Slice())
	}
	ss.Pop("B3")
	if s := ss.Slice(); len(s) != 2 || s[0] != "B2" || s[1] != "B4" {
		t.Errorf("unexpected slice %v", s)
	}
}
