package util

import (
	"testing"
)

// TestStackOrder verifies LIFO behaviour and indexed access.
func TestStackOrder(t *testing.T) {
	s := Stack{}
	s.Push("a")
	s.Push("b")
	s.Push("c")
	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}
	if s.Peek().(string) != "c" {
		t.Errorf("expected peek c, got %v", s.Peek())
	}
	if s.Get(1).(string) != "c" || s.Get(3).(string) != "a" {
		t.Errorf("indexed access broken: %v %v", s.Get(1), s.Get(3))
	}
	if s.Get(0) != nil || s.Get(4) != nil {
		t.Error("out of range access must return nil")
	}
	if s.Pop().(string) != "c" || s.Pop().(string) != "b" || s.Pop().(string) != "a" {
		t.Error("pop order is not LIFO")
	}
	if s.Pop() != nil {
		t.Error("pop of empty stack must return nil")
	}
}

// TestStackNilPush verifies nil values are not stored.
func TestStackNilPush(t *testing.T) {
	s := Stack{}
	s.Push(nil)
	if s.Size() != 0 {
		t.Error("nil push must not grow the stack")
	}
}

// TestPerror verifies collection, ordering and flush.
func TestPerror(t *testing.T) {
	pe := NewPerror(2)
	pe.Append(nil)
	if pe.Len() != 0 {
		t.Error("nil errors must be ignored")
	}
	pe.Append(errString("first"))
	pe.Append(errString("second"))
	if pe.Len() != 2 {
		t.Fatalf("expected 2 errors, got %d", pe.Len())
	}
	errs := pe.Errors()
	if errs[0].Error() != "first" || errs[1].Error() != "second" {
		t.Error("errors are not in append order")
	}
	pe.Flush()
	if pe.Len() != 0 {
		t.Error("flush did not empty the collector")
	}
}

// errString is a minimal error for collector tests.
type errString string

func (e errString) Error() string { return string(e) }

// TestLabeller verifies block and function labels count independently.
func TestLabeller(t *testing.T) {
	l := Labeller{}
	if got := l.NextBlock(); got != ".L0" {
		t.Errorf("expected .L0, got %s", got)
	}
	if got := l.NextBlock(); got != ".L1" {
		t.Errorf("expected .L1, got %s", got)
	}
	if got := l.NextFunction(); got != ".LFB0" {
		t.Errorf("expected .LFB0, got %s", got)
	}
	if got := l.NextBlock(); got != ".L2" {
		t.Errorf("function labels must not consume block numbers, got %s", got)
	}
}

// TestWriterFormats verifies the instruction emit helpers.
func TestWriterFormats(t *testing.T) {
	w := Writer{}
	w.Label("f")
	w.Ins0("cltd")
	w.Ins1("pushl", "%ebp")
	w.Ins2("movl", "%esp", "%ebp")
	want := "f:\n\tcltd\n\tpushl\t%ebp\n\tmovl\t%esp, %ebp\n"
	if w.String() != want {
		t.Errorf("expected %q, got %q", want, w.String())
	}
}
