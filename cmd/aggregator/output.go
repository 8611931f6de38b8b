package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// printer renders command results in the selected format. Text output is
// produced by the text function; yaml and json render value.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) *printer {
	return &printer{format: format, w: w}
}

func (p *printer) print(value interface{}, text func(w io.Writer) error) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(p.w)
	}
}

// printError writes err to w. Structured formats render the error's code,
// classification and context.
func printError(w io.Writer, format string, err error) {
	resp := errors.ToJSON(err)
	switch format {
	case formatJSON, formatYAML:
		_ = newPrinter(format, w).print(map[string]interface{}{"error": resp}, nil)
	default:
		fmt.Fprintf(w, "error: %s\n", err)
	}
}
