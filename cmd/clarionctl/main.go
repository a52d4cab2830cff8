// Command clarionctl is a command-line companion for the Clarion server. It
// signs in with a session cookie, browses report listings, downloads report
// exports, and posts inventory mutations through the client SDK.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/clarion-hms/clarion/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "clarionctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("clarionctl", flag.ContinueOnError)
	server := global.String("server", envOr("CLARION_SERVER", "http://127.0.0.1:8080"), "server base URL")
	email := global.String("email", os.Getenv("CLARION_EMAIL"), "account email")
	password := global.String("password", os.Getenv("CLARION_PASSWORD"), "account password")
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: clarionctl [flags] <report|export|consume|reject|move> ...")
	}

	c, err := client.New(*server, client.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	if *email != "" {
		if err := c.Login(ctx, *email, *password); err != nil {
			return err
		}
		defer func() {
			if err := c.Logout(ctx); err != nil {
				slog.Default().Warn("logout", slog.Any("error", err))
			}
		}()
	}

	switch rest[0] {
	case "report":
		return runReport(ctx, c, rest[1:])
	case "export":
		return runExport(ctx, c, rest[1:])
	case "consume", "reject":
		return runCounterMutation(ctx, c, rest[0], rest[1:])
	case "move":
		return runMove(ctx, c, rest[1:])
	default:
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func runReport(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	search := fs.String("search", "", "search filter")
	status := fs.String("status", "", "status filter")
	period := fs.String("period", "", "period shorthand (today, week, month, year)")
	page := fs.String("page", "", "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: clarionctl report <type> [flags]")
	}

	filters := client.NewFilters()
	filters.Set("search", *search)
	filters.Set("status", *status)
	filters.Set("period", *period)
	filters.Set("page", *page)

	fetcher := client.NewFetcher[json.RawMessage](c)
	pageData, err := fetcher.Fetch(ctx, "/reports/"+fs.Arg(0), filters)
	if err != nil {
		return err
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(map[string]any{
		"data":      pageData.Data,
		"meta":      pageData.Meta,
		"stats":     pageData.Stats,
		"dateRange": pageData.DateRange,
	})
}

func runExport(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "csv", "export format: csv, pdf, excel")
	dir := fs.String("dir", ".", "directory to save the export into")
	period := fs.String("period", "", "period shorthand (today, week, month, year)")
	status := fs.String("status", "", "status filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: clarionctl export <type> [flags]")
	}

	filters := client.NewFilters()
	filters.Set("period", *period)
	filters.Set("status", *status)

	downloader := client.NewDownloader(c, client.DirSaver{Dir: *dir})
	name, err := downloader.Export(ctx, fs.Arg(0), client.Format(*format), filters)
	if err != nil {
		return err
	}
	fmt.Println("saved", name)
	return nil
}

func runCounterMutation(ctx context.Context, c *client.Client, action string, args []string) error {
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	qty := fs.Int("qty", 0, "quantity")
	notes := fs.String("notes", "", "notes")
	by := fs.String("by", "", "handled by")
	stock := fs.Int("stock", 0, "displayed stock of the item")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: clarionctl %s <item-id> [flags]", action)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("item id: %w", err)
	}

	item := client.InventoryItem{ID: id, Stock: *stock}
	input := client.ConsumeInput{Quantity: *qty, Notes: *notes, HandledBy: *by}
	mutator := client.NewMutator(c, client.NewMemoryStatsStore(client.InventoryStats{}))

	var result client.MutationResult
	if action == "consume" {
		result, err = mutator.Consume(ctx, item, input)
	} else {
		result, err = mutator.Reject(ctx, item, input)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s posted: movement %s, stock now %d\n", action, result.Movement.Code, result.Item.Stock)
	return nil
}

func runMove(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	movementType := fs.String("type", "IN", "movement type: IN or OUT")
	qty := fs.Int("qty", 0, "quantity")
	remarks := fs.String("remarks", "", "remarks")
	by := fs.String("by", "", "handled by")
	stock := fs.Int("stock", 0, "displayed stock of the item")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: clarionctl move <item-id> [flags]")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("item id: %w", err)
	}

	item := client.InventoryItem{ID: id, Stock: *stock}
	mutator := client.NewMutator(c, client.NewMemoryStatsStore(client.InventoryStats{}))
	result, err := mutator.Move(ctx, item, client.MoveInput{
		MovementType: *movementType,
		Quantity:     *qty,
		Remarks:      *remarks,
		HandledBy:    *by,
	})
	if err != nil {
		return err
	}
	fmt.Printf("move posted: movement %s, stock now %d\n", result.Movement.Code, result.Item.Stock)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
