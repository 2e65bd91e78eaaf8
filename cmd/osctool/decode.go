package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/osckit/go-osc/osc"
)

type decodeOptions struct {
	slip     bool
	output   string
	maxDepth int
}

func decodeCmd() *cobra.Command {
	opts := &decodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode a hex dump of an OSC packet",
		Long: `Decode a hex dump of one OSC packet, or of a SLIP stream with --slip.
The dump is read from the argument or from stdin; whitespace is ignored.

Examples:
  osctool decode 2f6869002c000000
  echo 2f6869002c000000c0 | osctool decode --slip -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = string(b)
			}
			data, err := hex.DecodeString(strings.Join(strings.Fields(raw), ""))
			if err != nil {
				return fmt.Errorf("input is not hex: %w", err)
			}
			return runDecode(cmd.OutOrStdout(), opts, data)
		},
	}

	cmd.Flags().BoolVar(&opts.slip, "slip", false, "Input is a SLIP framed stream")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text or yaml")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", osc.DefaultMaxDepth, "Deepest bundle nesting accepted")

	return cmd
}

func runDecode(out io.Writer, opts *decodeOptions, data []byte) error {
	if opts.output != "text" && opts.output != "yaml" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	dec := &osc.Decoder{MaxDepth: opts.maxDepth}

	var packets []osc.Packet
	var decodeErr error
	if opts.slip {
		d := osc.NewDeframer(nil, osc.DestinationFunc(func(p osc.Packet) {
			packets = append(packets, p)
		}))
		d.Decoder = dec
		decodeErr = d.Feed(data)
		if n := d.Buffered(); n > 0 {
			decodeErr = errors.Join(decodeErr, fmt.Errorf("%d bytes after the last END", n))
		}
	} else {
		p, err := dec.Decode(data, nil)
		if err != nil {
			return err
		}
		packets = append(packets, p)
	}

	if opts.output == "yaml" {
		docs := make([]packetDoc, len(packets))
		for i, p := range packets {
			docs[i] = newPacketDoc(p)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else {
		for _, p := range packets {
			fmt.Fprintln(out, p)
		}
	}
	return decodeErr
}

// packetDoc is the YAML form of a packet.
type packetDoc struct {
	Kind      string        `yaml:"kind"`
	Address   string        `yaml:"address,omitempty"`
	Arguments []argumentDoc `yaml:"arguments,omitempty"`
	Timetag   *uint64       `yaml:"timetag,omitempty"`
	Time      string        `yaml:"time,omitempty"`
	Elements  []packetDoc   `yaml:"elements,omitempty"`
}

// argumentDoc keeps zero values; Value is nil only for the N tag.
type argumentDoc struct {
	Type  string      `yaml:"type"`
	Value interface{} `yaml:"value"`
}

func newPacketDoc(p osc.Packet) packetDoc {
	switch v := p.(type) {
	case *osc.Message:
		doc := packetDoc{Kind: "message", Address: v.Address()}
		for _, a := range v.Arguments {
			doc.Arguments = append(doc.Arguments, newArgumentDoc(a))
		}
		return doc
	case *osc.Bundle:
		tt := v.Timetag.TimeTag()
		doc := packetDoc{Kind: "bundle", Timetag: &tt}
		if !v.Timetag.IsImmediate() {
			doc.Time = v.Timetag.Time().UTC().Format(time.RFC3339Nano)
		}
		for _, e := range v.Elements {
			doc.Elements = append(doc.Elements, newPacketDoc(e))
		}
		return doc
	default:
		return packetDoc{}
	}
}

func newArgumentDoc(a osc.Argument) argumentDoc {
	doc := argumentDoc{Type: a.TypeTag().String()}
	switch v := a.(type) {
	case osc.String:
		doc.Value = string(v)
	case osc.Int32:
		doc.Value = int32(v)
	case osc.Float32:
		doc.Value = float32(v)
	case osc.Blob:
		doc.Value = hex.EncodeToString(v)
	case osc.Timetag:
		doc.Value = v.TimeTag()
	case osc.Int64:
		doc.Value = int64(v)
	case osc.Float64:
		doc.Value = float64(v)
	case osc.Bool:
		doc.Value = bool(v)
	}
	return doc
}
