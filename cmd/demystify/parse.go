package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/demystify/internal/naming"
)

func parseCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one name is required, e.g. demystify parse '<Run>b__3_1'")
	}

	filter := naming.None
	if kind := c.String("kind"); kind != "" {
		res := naming.NewKindResolver().Resolve(kind)
		if !res.Resolved {
			return errors.New(res.Warning)
		}
		if res.Warning != "" {
			log.Printf("Warning: %s", res.Warning)
		}
		filter = res.Kind
	}

	var descriptions []naming.Description
	for _, name := range c.Args().Slice() {
		d := naming.Describe(name)
		if filter != naming.None && d.Kind != filter.String() {
			continue
		}
		descriptions = append(descriptions, d)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if descriptions == nil {
			descriptions = []naming.Description{}
		}
		return enc.Encode(descriptions)
	}

	for _, d := range descriptions {
		writeDescription(c.App.Writer, d)
	}
	return nil
}

func writeDescription(w io.Writer, d naming.Description) {
	fmt.Fprintln(w, d.Name)
	if !d.Generated {
		fmt.Fprintln(w, "  not a generated name")
		return
	}

	fmt.Fprintf(w, "  kind:      %s (%s)\n", d.Kind, d.Tag)
	if d.Enclosing != "" {
		fmt.Fprintf(w, "  enclosing: %s\n", d.Enclosing)
	}
	switch {
	case d.Anonymous:
		fmt.Fprintln(w, "  sub-name:  (anonymous)")
	case d.SubName != "":
		fmt.Fprintf(w, "  sub-name:  %s\n", d.SubName)
	}
	if d.MatchHint != "" {
		fmt.Fprintf(w, "  hint:      %s\n", d.MatchHint)
	}
	if d.LambdaIndex != nil {
		fmt.Fprintf(w, "  lambda:    %s #%d\n", d.LambdaStem, *d.LambdaIndex)
	}
}
