package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/anchorageoss/haloverify/crypto"
	"github.com/anchorageoss/haloverify/keys"
)

// AttestationCommand creates the attestation command
func AttestationCommand() *cli.Command {
	return &cli.Command{
		Name:  "attestation",
		Usage: "Check the secp256k1 attestations linking a tag's keys to the manufacturer",
		Commands: []*cli.Command{
			pk2AttestationCommand(),
			keyAttestationCommand(),
		},
	}
}

func rootsFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "roots-file",
		Usage:   "File of trusted root public keys, one hex key per line (defaults to the built-in Arx roots)",
		Sources: cli.EnvVars("HALO_ROOTS_FILE"),
	}
}

func pk2AttestationCommand() *cli.Command {
	return &cli.Command{
		Name:  "pk2",
		Usage: "Verify that a trusted root signed pk2",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pk2",
				Usage:    "Public key of slot 2 (hex)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "attest",
				Usage:    "pk2 attestation read from the tag (hex)",
				Required: true,
			},
			rootsFileFlag(),
		},
		Action: runPK2AttestationCommand,
	}
}

func runPK2AttestationCommand(ctx context.Context, cmd *cli.Command) error {
	pk2, err := decodeHexArg("pk2", cmd.String("pk2"))
	if err != nil {
		return err
	}
	attest, err := decodeHexArg("attest", cmd.String("attest"))
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	root, err := checkPK2(ctx, cmd, logger, pk2, attest)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "PASS root=%s\n", hex.EncodeToString(root))
	return nil
}

// checkPK2 verifies the pk2 attestation against the configured roots. A pk2
// no root signed prints FAIL and returns an exit error.
func checkPK2(ctx context.Context, cmd *cli.Command, logger *zap.Logger, pk2, attest []byte) ([]byte, error) {
	provider := &keys.FileRootProvider{Path: cmd.String("roots-file")}
	roots, err := provider.GetRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roots: %w", err)
	}
	logger.Debug("loaded roots", zap.Int("count", len(roots)))

	root, err := crypto.VerifyPK2Attestation(roots, pk2, attest)
	if errors.Is(err, crypto.ErrUntrustedAttestation) {
		logger.Warn("pk2 attestation rejected", zap.String("pk2", hex.EncodeToString(pk2)))
		fmt.Fprintln(cmd.Root().Writer, "FAIL")
		return nil, cli.Exit("", 1)
	}
	if err != nil {
		return nil, fmt.Errorf("pk2 attestation failed: %w", err)
	}
	return root, nil
}

func keyAttestationCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Verify that pk2 signed the public key of another slot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pk2",
				Usage:    "Public key of slot 2 (hex)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "key-no",
				Usage:    "Slot number of the attested key as one hex byte, e.g. 01",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "public-key",
				Usage:    "Attested public key (hex)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "attest",
				Usage:    "Key attestation signed by pk2 (hex)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "pk2-attest",
				Usage: "Also check that a trusted root signed pk2 (hex)",
			},
			rootsFileFlag(),
		},
		Action: runKeyAttestationCommand,
	}
}

func runKeyAttestationCommand(ctx context.Context, cmd *cli.Command) error {
	pk2, err := decodeHexArg("pk2", cmd.String("pk2"))
	if err != nil {
		return err
	}
	keyNo, err := parseKeyNo(cmd.String("key-no"))
	if err != nil {
		return err
	}
	publicKey, err := decodeHexArg("public-key", cmd.String("public-key"))
	if err != nil {
		return err
	}
	attest, err := decodeHexArg("attest", cmd.String("attest"))
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out := cmd.Root().Writer

	var root []byte
	if s := cmd.String("pk2-attest"); s != "" {
		pk2Attest, err := decodeHexArg("pk2-attest", s)
		if err != nil {
			return err
		}
		if root, err = checkPK2(ctx, cmd, logger, pk2, pk2Attest); err != nil {
			return err
		}
	}

	err = crypto.VerifyKeyAttestation(pk2, keyNo, publicKey, attest)
	if errors.Is(err, crypto.ErrBadAttestation) {
		logger.Warn("key attestation rejected",
			zap.String("keyNo", hex.EncodeToString(keyNo)),
			zap.String("publicKey", hex.EncodeToString(publicKey)),
		)
		fmt.Fprintln(out, "FAIL")
		return cli.Exit("", 1)
	}
	if err != nil {
		return fmt.Errorf("key attestation failed: %w", err)
	}

	if root != nil {
		fmt.Fprintf(out, "PASS key=%x; root=%s\n", keyNo, hex.EncodeToString(root))
	} else {
		fmt.Fprintf(out, "PASS key=%x\n", keyNo)
	}
	return nil
}
