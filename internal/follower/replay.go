package follower

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/manifest-network/tracker/internal/models"
)

// journalEvent is one line of a newline-delimited JSON event journal.
type journalEvent struct {
	Kind   string `json:"kind"`
	Tx     string `json:"tx,omitempty"`
	Block  string `json:"block,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// Replay applies a journal of chain events to the applier, serially and in
// file order, with a progress bar.
func Replay(ctx context.Context, path string, rec Applier, log *slog.Logger) error {
	total, err := countLines(path)
	if err != nil {
		return fmt.Errorf("failed to scan journal: %w", err)
	}
	log.Info("Replaying event journal", "path", path, "events", total)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("Replaying events..."),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	if err := bar.RenderBlank(); err != nil {
		return fmt.Errorf("failed to render progress bar: %w", err)
	}

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if ctx.Err() != nil {
			log.Info("Replay cancelled by user")
			return ctx.Err()
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		ev, err := decodeEvent(raw)
		if err != nil {
			return fmt.Errorf("failed to decode journal line %d: %w", line, err)
		}
		if err := rec.Apply(ctx, ev); err != nil {
			return fmt.Errorf("failed to apply journal line %d: %w", line, err)
		}

		if err := bar.Add(1); err != nil {
			log.Warn("Failed to update progress bar", "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if err := bar.Finish(); err != nil {
		return fmt.Errorf("failed to finish progress bar: %w", err)
	}
	return nil
}

func decodeEvent(raw []byte) (models.Event, error) {
	var je journalEvent
	if err := json.Unmarshal(raw, &je); err != nil {
		return nil, err
	}

	switch je.Kind {
	case "new_transaction":
		if je.Tx == "" {
			return nil, fmt.Errorf("new_transaction event without tx")
		}
		return models.NewTransaction{Tx: je.Tx}, nil
	case "new_block":
		if je.Block == "" {
			return nil, fmt.Errorf("new_block event without block")
		}
		return models.NewBlock{Block: je.Block, Parent: je.Parent}, nil
	case "finalized":
		if je.Block == "" {
			return nil, fmt.Errorf("finalized event without block")
		}
		return models.Finalized{Block: je.Block}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", je.Kind)
	}
}

func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var n int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			n++
		}
	}
	return n, scanner.Err()
}
