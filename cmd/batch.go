package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/haloverify/verify"
)

// batchLine is one line of a batch file.
type batchLine struct {
	ID     string `json:"id"`
	PKN    string `json:"pkn"`
	RND    string `json:"rnd"`
	RNDSig string `json:"rndsig"`
}

// BatchCommand creates the batch command
func BatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Verify many taps from a JSON lines file",
		UsageText: `halo-verify batch --file taps.jsonl

Each line is an object {"id": "...", "pkn": "...", "rnd": "...", "rndsig": "..."}.
Use --file - to read from stdin.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to the JSON lines file, or - for stdin",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent verifications",
				Value: int64(runtime.NumCPU()),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output one JSON object per tap",
			},
			ledgerFlag(),
		},
		Action: runBatchCommand,
	}
}

func runBatchCommand(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")

	var in io.Reader = cmd.Root().Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		in = f
	}

	reqs, err := readBatch(in)
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

	results, err := service.VerifyBatch(ctx, reqs, int(cmd.Int("workers")))
	if err != nil {
		return fmt.Errorf("batch verification failed: %w", err)
	}

	out := cmd.Root().Writer
	formatter := verify.NewFormatter()
	asJSON := cmd.Bool("json")

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}

		if asJSON {
			line, err := json.Marshal(formatter.FormatBatchJSON(r))
			if err != nil {
				return fmt.Errorf("failed to marshal output: %w", err)
			}
			fmt.Fprintln(out, string(line))
			continue
		}

		if r.Err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", r.ID, r.Err)
		} else {
			fmt.Fprintf(out, "%s; id=%s\n", formatter.FormatPass(r.Result), r.ID)
		}
	}

	fmt.Fprintf(cmd.Root().ErrWriter, "%d/%d taps verified\n", len(results)-failed, len(results))
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// readBatch parses a JSON lines batch. Blank lines are skipped and a missing
// id defaults to the line number.
func readBatch(r io.Reader) ([]verify.VerifyRequest, error) {
	var reqs []verify.VerifyRequest

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var line batchLine
		if err := json.Unmarshal([]byte(text), &line); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse: %w", lineNo, err)
		}
		if line.ID == "" {
			line.ID = fmt.Sprintf("line-%d", lineNo)
		}

		req := verify.VerifyRequest{ID: line.ID}
		var err error
		if req.PKN, err = decodeHexArg("pkn", line.PKN); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if req.RND, err = decodeHexArg("rnd", line.RND); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if req.RNDSig, err = decodeHexArg("rndsig", line.RNDSig); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	return reqs, nil
}
