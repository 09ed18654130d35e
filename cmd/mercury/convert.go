package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flemzord/mercury/internal/config"
	"github.com/flemzord/mercury/internal/logging"
	"github.com/flemzord/mercury/modules/channel/messenger"
	"github.com/flemzord/mercury/pkg/message"
	"github.com/spf13/cobra"
)

// readInput reads the single optional argument, a file path or "-", and
// falls back to stdin.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cliLogger logs to stderr so stdout carries only the JSON result.
func cliLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.NewWithWriter(config.LoggingConfig{Level: level}, nil, cmd.ErrOrStderr())
}

func normalizeCmd() *cobra.Command {
	var (
		source     string
		threadID   string
		threadType string
	)
	cmd := &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Normalize a raw payload into a canonical message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := messenger.ParseSource(source)
			if err != nil {
				return err
			}
			tt, err := message.ParseThreadType(threadType)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			logger, err := cliLogger(cmd)
			if err != nil {
				return err
			}

			n := messenger.NewNormalizer(messenger.WithLogger(logger))
			msg, err := n.NormalizeRaw(src, messenger.Thread{ID: threadID, Type: tt}, data)
			if err != nil {
				return err
			}
			if msg == nil {
				return fmt.Errorf("%w: empty payload", messenger.ErrInvalidPayload)
			}
			return writeJSON(cmd, msg)
		},
	}
	cmd.Flags().StringVar(&source, "source", string(messenger.SourceGraphQL), "Payload source: graphql, delta, delta_reply or pull")
	cmd.Flags().StringVar(&threadID, "thread-id", "", "Thread the payload belongs to")
	cmd.Flags().StringVar(&threadType, "thread-type", string(message.ThreadUser), "Thread type: user or group")
	cmd.Flags().String("log-level", "warn", "Minimum log level")
	return cmd
}

func serializeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serialize [file|-]",
		Short: "Convert a canonical message into send-request fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var msg message.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				return fmt.Errorf("decoding message: %w", err)
			}
			fields, err := messenger.ToSendData(&msg)
			if err != nil {
				return err
			}
			return writeJSON(cmd, fields)
		},
	}
}
