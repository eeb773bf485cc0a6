package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/anchorageoss/haloverify/ledger"
	"github.com/anchorageoss/haloverify/record"
	"github.com/anchorageoss/haloverify/verify"
)

// VerifyCommand creates the verify command
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a HaLo dynamic URL counter signature",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pkn",
				Usage:    "Value of the 'pkN' query string parameter (hex)",
				Required: true,
				Sources:  cli.EnvVars("HALO_PKN"),
			},
			&cli.StringFlag{
				Name:     "rnd",
				Usage:    "Value of the 'rnd' query string parameter (hex)",
				Required: true,
				Sources:  cli.EnvVars("HALO_RND"),
			},
			&cli.StringFlag{
				Name:     "rndsig",
				Usage:    "Value of the 'rndsig' query string parameter (hex)",
				Required: true,
				Sources:  cli.EnvVars("HALO_RNDSIG"),
			},
			formatFlag(),
			ledgerFlag(),
		},
		Action: runVerifyCommand,
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: text, json, cbor or borsh",
		Value: "text",
		Validator: func(s string) error {
			switch s {
			case "text", "json", "cbor", "borsh":
				return nil
			}
			return fmt.Errorf("unknown format %q", s)
		},
	}
}

func ledgerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "ledger",
		Usage: "LevelDB directory recording the last counter per key; stale counters FAIL",
	}
}

func runVerifyCommand(ctx context.Context, cmd *cli.Command) error {
	pkn, err := decodeHexArg("pkn", cmd.String("pkn"))
	if err != nil {
		return err
	}
	rnd, err := decodeHexArg("rnd", cmd.String("rnd"))
	if err != nil {
		return err
	}
	rndsig, err := decodeHexArg("rndsig", cmd.String("rndsig"))
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	service, closeLedger, err := newVerifyService(cmd, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	out := cmd.Root().Writer
	result, err := service.Verify(ctx, &verify.VerifyRequest{
		ID:     "cli",
		PKN:    pkn,
		RND:    rnd,
		RNDSig: rndsig,
	})
	if isVerificationFailure(err) {
		fmt.Fprintln(out, "FAIL")
		return cli.Exit("", 1)
	}
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	return writeResult(out, cmd.String("format"), result)
}

// newVerifyService builds a Service, opening the ledger when --ledger is set.
// The returned func closes it.
func newVerifyService(cmd *cli.Command, logger *zap.Logger) (*verify.Service, func(), error) {
	opts := []verify.Option{verify.WithLogger(logger)}
	closeLedger := func() {}

	if path := cmd.String("ledger"); path != "" {
		l, err := ledger.OpenLevelDB(path)
		if err != nil {
			return nil, nil, err
		}
		closeLedger = func() {
			if err := l.Close(); err != nil {
				logger.Error("failed to close ledger", zap.Error(err))
			}
		}
		opts = append(opts, verify.WithLedger(l))
	}

	return verify.NewService(opts...), closeLedger, nil
}

// isVerificationFailure reports whether err means the tap must be rejected,
// as opposed to malformed input.
func isVerificationFailure(err error) bool {
	return errors.Is(err, verify.ErrBadSignature) || errors.Is(err, verify.ErrReplay)
}

func writeResult(w io.Writer, format string, result *verify.Result) error {
	formatter := verify.NewFormatter()

	switch format {
	case "json":
		output := formatter.FormatJSON(result)
		jsonOutput, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Fprintln(w, string(jsonOutput))
	case "cbor", "borsh":
		enc, err := record.ParseEncoding(format)
		if err != nil {
			return err
		}
		b, err := record.NewTapRecord(result).Encode(enc)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, hex.EncodeToString(b))
	default:
		fmt.Fprintln(w, formatter.FormatPass(result))
	}
	return nil
}
