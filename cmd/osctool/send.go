package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/osckit/go-osc/osc"
)

type sendOptions struct {
	udpAddr string
	tcpAddr string
	wsURL   string
	bundle  bool
	delay   time.Duration
	wait    time.Duration
}

// sender is implemented by osc.Client and osc.WebSocketClient.
type sender interface {
	Send(p osc.Packet) error
	Serve(ctx context.Context, dest osc.Destination) error
	Close() error
}

func sendCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send [flags] /address [type:value ...]",
		Short: "Send one OSC message",
		Long: `Build one OSC message from the command line and send it.

Arguments are written as type:value, using OSC type tags:
  i:42  h:42  f:0.5  d:0.5  s:text  b:cafe  t:now  t:1.0  T  F  N

Examples:
  osctool send /synth/freq f:440
  osctool send --tcp 127.0.0.1:9000 --bundle --delay 1s /note i:60 T
  osctool send --ws ws://127.0.0.1:8080/osc --wait 1s /ping`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.packet(args)
			if err != nil {
				return err
			}
			return runSend(cmd.Context(), cmd.OutOrStdout(), opts, p)
		},
	}

	cmd.Flags().StringVar(&opts.udpAddr, "udp", "127.0.0.1:8765", "UDP destination address")
	cmd.Flags().StringVar(&opts.tcpAddr, "tcp", "", "TCP destination address, packets are SLIP framed")
	cmd.Flags().StringVar(&opts.wsURL, "ws", "", "WebSocket URL")
	cmd.Flags().BoolVarP(&opts.bundle, "bundle", "b", false, "Wrap the message in a bundle")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "Bundle time tag relative to now (implies --bundle)")
	cmd.Flags().DurationVarP(&opts.wait, "wait", "w", 0, "Print replies received within this duration")
	cmd.MarkFlagsMutuallyExclusive("tcp", "ws")

	return cmd
}

// packet builds the message, or the bundle holding it.
func (o *sendOptions) packet(args []string) (osc.Packet, error) {
	oscArgs, err := parseArguments(args[1:])
	if err != nil {
		return nil, err
	}
	msg, err := osc.NewMessage(args[0], oscArgs...)
	if err != nil {
		return nil, err
	}

	switch {
	case o.delay != 0:
		return osc.NewBundleWithTime(time.Now().Add(o.delay), msg), nil
	case o.bundle:
		return osc.NewBundle(msg), nil
	default:
		return msg, nil
	}
}

func (o *sendOptions) dial(ctx context.Context) (sender, error) {
	switch {
	case o.wsURL != "":
		return osc.DialWebSocket(ctx, o.wsURL)
	case o.tcpAddr != "":
		return osc.DialStream(ctx, o.tcpAddr)
	case o.udpAddr != "":
		return osc.Dial(o.udpAddr)
	default:
		return nil, errors.New("no destination, set --udp, --tcp or --ws")
	}
}

func runSend(ctx context.Context, out io.Writer, opts *sendOptions, p osc.Packet) error {
	c, err := opts.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Send(p); err != nil {
		return err
	}
	if opts.wait <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opts.wait)
	defer cancel()
	return c.Serve(ctx, osc.DestinationFunc(func(reply osc.Packet) {
		fmt.Fprintln(out, reply)
	}))
}
