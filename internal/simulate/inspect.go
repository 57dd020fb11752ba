package simulate

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pr-poehali-dev/image-description-webapp/internal/intake"
)

// InspectOptions control manifest inspection.
type InspectOptions struct {
	ManifestPath string
	Limit        int  // 0 means all entries
	Interactive  bool // pause for Enter between entries
}

// Inspect prints manifest entries so a run can be sanity-checked before
// committing to it.
func Inspect(ctx context.Context, opts InspectOptions) error {
	loader := NewLoader(opts.ManifestPath)

	var entries []ManifestEntry
	var err error

	if opts.Limit > 0 {
		entries, err = loader.LoadSample(opts.Limit)
	} else {
		entries, err = loader.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	fmt.Printf("Loaded %d entries from %s\n", len(entries), opts.ManifestPath)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for i, entry := range entries {
		// Check for context cancellation (e.g., Ctrl+C) at the start of each iteration
		select {
		case <-ctx.Done():
			fmt.Println("\nInspection interrupted.")
			return nil
		default:
		}

		size := int64(len(entry.Bytes()))

		fmt.Printf("ENTRY %d/%d\n", i+1, len(entries))
		fmt.Println(strings.Repeat("-", 80))
		fmt.Printf("Name:     %s\n", entry.Name)
		fmt.Printf("MIME:     %s\n", entry.MIME)
		fmt.Printf("Size:     %s (%d bytes)\n", intake.SizeLabel(size), size)
		fmt.Printf("Payload:  %d inline bytes\n", len(entry.Payload))
		fmt.Printf("Preview:  %t\n", strings.HasPrefix(entry.MIME, "image/"))
		fmt.Println()

		if opts.Interactive {
			fmt.Print("Press Enter to continue to next entry (or Ctrl+C to quit)...")

			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			select {
			case <-ctx.Done():
				fmt.Println("\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Println()
			}
		}
	}

	return nil
}
