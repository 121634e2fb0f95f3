package vm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type Encoder[T any] interface {
	Encode(T) error
}

type Decoder[T any] interface {
	Decode(T) error
}

var (
	_ Decoder[*Program] = (*TextDecoder)(nil)
	_ Encoder[Program]  = TextEncoder{}
)

// TextDecoder reads program text, one instruction per line. Blank lines
// and lines starting with '#' are skipped; line numbers in errors refer
// to the original input.
type TextDecoder struct {
	r io.Reader
}

func NewTextDecoder(r io.Reader) *TextDecoder {
	return &TextDecoder{
		r: r,
	}
}

func (d *TextDecoder) Decode(p *Program) error {
	var (
		prog   Program
		lineNo int
	)
	scanner := bufio.NewScanner(d.r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		inst, err := DecodeLine(line)
		if err != nil {
			return &DecodeError{Line: lineNo, Text: line, Err: err}
		}
		prog = append(prog, inst)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read program: %w", err)
	}
	*p = prog
	return nil
}

// TextEncoder writes a program in canonical form.
type TextEncoder struct {
	w io.Writer
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{
		w: w,
	}
}

func (e TextEncoder) Encode(p Program) error {
	for _, line := range p.Lines() {
		if _, err := fmt.Fprintln(e.w, line); err != nil {
			return err
		}
	}
	return nil
}
