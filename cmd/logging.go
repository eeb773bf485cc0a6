package cmd

import (
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingFlags are the global flags controlling diagnostic output. Logs go to
// stderr; results go to stdout.
func LoggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn or error",
			Value:   "info",
			Sources: cli.EnvVars("HALO_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: console or json",
			Value: "console",
		},
	}
}

// newLogger builds a logger from the global flags, writing to the root
// command's error writer.
func newLogger(cmd *cli.Command) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	var encoder zapcore.Encoder
	switch format := cmd.String("log-format"); format {
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("invalid --log-format %q: expected console or json", format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(cmd.Root().ErrWriter), level)
	return zap.New(core).Named("halo-verify"), nil
}
