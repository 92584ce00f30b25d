package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/adapters/channel"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/di"
	"github.com/mikey/scam-monitor/internal/factory"
	"github.com/mikey/scam-monitor/internal/utils"
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var invokeErr error
	switch {
	case flags.List:
		invokeErr = container.Invoke(listRecords)
	case flags.DeleteID != "":
		invokeErr = container.Invoke(deleteRecord)
	default:
		invokeErr = container.Invoke(classify)
	}
	if invokeErr != nil {
		fmt.Printf("Error: %v\n", invokeErr)
		os.Exit(1)
	}
}

// result is printed as JSON on stdout
type result struct {
	Channel     core.Channel `json:"channel"`
	Verdict     core.Verdict `json:"verdict"`
	IsScam      bool         `json:"is_scam"`
	Confidence  *float64     `json:"confidence,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	Model       string       `json:"model,omitempty"`
}

func classify(flags *di.CLIFlags, svc *core.DetectionService, tp *utils.TextProcessor, logger *zap.Logger) error {
	defer logger.Sync()

	ch, err := core.ParseChannel(flags.Channel)
	if err != nil {
		return err
	}

	req, err := buildRequest(ch, flags, tp, logger)
	if err != nil {
		return err
	}

	res, err := svc.Classify(context.Background(), req)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	out := result{
		Channel:     ch,
		Verdict:     res.Verdict,
		IsScam:      svc.IsScam(res),
		Confidence:  res.Confidence,
		Explanation: res.Explanation,
		Model:       res.ModelUsed,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildRequest(ch core.Channel, flags *di.CLIFlags, tp *utils.TextProcessor, logger *zap.Logger) (*core.ClassificationRequest, error) {
	if ch != core.ChannelEmail {
		msg := flags.Message
		if msg == "" && ch == core.ChannelSMS {
			raw, err := readInput(flags.InputFile, logger)
			if err != nil {
				return nil, err
			}
			msg = strings.TrimSpace(string(raw))
		}
		if ch == core.ChannelCall {
			if flags.Sender == "" {
				flags.Sender = msg
			}
			msg = flags.Sender
		}
		if msg == "" {
			return nil, errors.New("nothing to classify")
		}
		return &core.ClassificationRequest{Channel: ch, Message: msg, Sender: flags.Sender}, nil
	}

	raw, err := readInput(flags.InputFile, logger)
	if err != nil {
		return nil, err
	}
	text, err := channel.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	body, err := text.Text(tp)
	if err != nil {
		return nil, err
	}
	return &core.ClassificationRequest{Channel: ch, Subject: text.Subject, Body: body}, nil
}

func readInput(path string, logger *zap.Logger) ([]byte, error) {
	if path == "" {
		logger.Info("Reading input from stdin")
		return io.ReadAll(bufio.NewReader(os.Stdin))
	}
	logger.Info("Reading input from file", zap.String("file", path))
	return os.ReadFile(path)
}

func listRecords(flags *di.CLIFlags, store factory.Store, logger *zap.Logger) error {
	defer logger.Sync()
	defer store.Close()

	records, err := store.ListByUser(context.Background(), flags.UserID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func deleteRecord(flags *di.CLIFlags, store factory.Store, logger *zap.Logger) error {
	defer logger.Sync()
	defer store.Close()

	if err := store.DeleteByID(context.Background(), flags.DeleteID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("no record with id %s", flags.DeleteID)
		}
		return err
	}
	logger.Info("Deleted scam record", zap.String("id", flags.DeleteID))
	return nil
}
