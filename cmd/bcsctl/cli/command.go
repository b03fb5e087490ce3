package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bcs-estimating/jobs"
)

// Run executes a bcsctl command and returns the process exit code.
func Run(ctx context.Context, c *JobsCLI, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		usage(errOut)
		return 2
	}
	switch args[0] {
	case "reprice":
		return runReprice(ctx, c, args[1:], out, errOut)
	case "stats":
		return runStats(ctx, c, out, errOut)
	case "retrying":
		return runRetrying(ctx, c, args[1:], out, errOut)
	default:
		usage(errOut)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: bcsctl <reprice|stats|retrying> [flags]")
	fmt.Fprintln(w, "  reprice -kind regional_modifier|markup -value 1.15 [-category 3]")
	fmt.Fprintln(w, "  retrying [-n 10]")
}

func runReprice(ctx context.Context, c *JobsCLI, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("reprice", flag.ContinueOnError)
	fs.SetOutput(errOut)
	kind := fs.String("kind", "", "regional_modifier or markup")
	value := fs.String("value", "", "new multiplier, greater than zero")
	category := fs.Int64("category", 0, "limit the reprice to one category")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	v, err := decimal.NewFromString(*value)
	if err != nil {
		fmt.Fprintf(errOut, "invalid -value %q: %v\n", *value, err)
		return 2
	}
	req := jobs.RepriceRequest{Kind: jobs.RepriceKind(*kind), Value: v}
	if *category != 0 {
		req.CategoryID = category
	}
	info, err := c.Reprice(ctx, req)
	if err != nil {
		fmt.Fprintf(errOut, "enqueue reprice: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "queued %s on %s\n", info.ID, info.Queue)
	return 0
}

func runStats(ctx context.Context, c *JobsCLI, out, errOut io.Writer) int {
	stats, err := c.InspectQueue(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "inspect queue: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	return 0
}

func runRetrying(ctx context.Context, c *JobsCLI, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("retrying", flag.ContinueOnError)
	fs.SetOutput(errOut)
	n := fs.Int("n", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	tasks, err := c.ListRetrying(ctx, *n)
	if err != nil {
		fmt.Fprintf(errOut, "list retrying: %v\n", err)
		return 1
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "%s %s retried=%d last_err=%q\n", t.ID, t.Type, t.Retried, t.LastErr)
	}
	return 0
}
