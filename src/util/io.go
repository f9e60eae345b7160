package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers output assembler text in a strings.Builder. The compiler is single threaded
// and synchronous; the buffer is written to its destination in one deterministic flush when
// the owning stage completes.
type Writer struct {
	sb strings.Builder
}

// ---------------------
// ----- Functions -----
// ---------------------

// Write writes a format string to the Writer's buffer.
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// Ins1 writes a one-line instruction using the operator and single operand.
func (w *Writer) Ins1(op, rs1 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s\n", op, rs1))
}

// Ins2 writes a one-line instruction using the operator, source operand and destination operand.
func (w *Writer) Ins2(op, rs1, rd string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s\n", op, rs1, rd))
}

// Ins0 writes a one-line instruction without operands.
func (w *Writer) Ins0(op string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\n", op))
}

// Label writes a one-line label with the given name.
func (w *Writer) Label(name string) {
	w.sb.WriteString(fmt.Sprintf("%s:\n", name))
}

// String returns the buffered output.
func (w *Writer) String() string {
	return w.sb.String()
}

// ReadSource reads source code from the file named by the Options structure.
func ReadSource(opt Options) (string, error) {
	b, err := os.ReadFile(opt.Src)
	return string(b), err
}

// WriteFile writes the string s to the file at path. The file is created or truncated and is
// closed on all exit paths.
func WriteFile(path, s string) error {
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString(s); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
