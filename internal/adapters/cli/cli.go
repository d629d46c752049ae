package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"

	"github.com/shopspring/decimal"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:], the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	if len(args) == 0 {
		log.Fatal("Usage: admin <command>\nAvailable: summary, apply-cog, delete-cog, intake, locate")
	}

	switch args[0] {
	case "summary", "sum", "s":
		summary, err := svc.GetInventorySummary(ctx)
		if err != nil {
			log.Fatalf("Failed to get summary: %v", err)
		}
		locations, err := svc.GetLocationCounts(ctx)
		if err != nil {
			log.Fatalf("Failed to get location counts: %v", err)
		}
		printSummary(summary, locations.Locations)

	case "apply-cog", "cog":
		if len(args) < 4 {
			log.Fatal("Usage: admin apply-cog <start YYYY-MM-DD> <end YYYY-MM-DD> <totalMinorUnits>")
		}
		total, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			log.Fatalf("Invalid total %q: %v", args[3], err)
		}
		result, err := svc.ApplyCOG(ctx, app.ApplyCOGRequest{
			StartDate:  args[1],
			EndDate:    args[2],
			TotalMinor: total,
		})
		if err != nil {
			log.Fatalf("Cost application failed: %v", err)
		}
		fmt.Printf("Applied record %d: %d items at %s each.\n",
			result.Record.ID, result.Record.ItemCount, money(result.Record.AverageMinor))

	case "delete-cog":
		if len(args) < 2 {
			log.Fatal("Usage: admin delete-cog <recordId>")
		}
		recordID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatalf("Invalid record id %q: %v", args[1], err)
		}
		result, err := svc.DeleteCOGRecord(ctx, recordID)
		if err != nil {
			log.Fatalf("Cost record deletion failed: %v", err)
		}
		fmt.Printf("Deleted record %d; %d items reset to zero cost.\n", recordID, result.ItemsReset)

	case "intake", "in":
		var req app.IntakeRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		result, err := svc.IntakeItem(ctx, req)
		if err != nil {
			log.Fatalf("Intake failed: %v", err)
		}
		fmt.Printf("Item %d registered (SKU %s).\n", result.Item.ID, result.SKU)
		if result.Duplicate != nil && result.Duplicate.IsDuplicate {
			fmt.Printf("Note: %d existing copies of this identifier.\n", len(result.Duplicate.Existing))
		}

	case "locate", "loc":
		if len(args) < 3 {
			log.Fatal("Usage: admin locate <itemId> <location>")
		}
		itemID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatalf("Invalid item id %q: %v", args[1], err)
		}
		result, err := svc.AssignLocation(ctx, itemID, args[2])
		if err != nil {
			log.Fatalf("Putaway failed: %v", err)
		}
		fmt.Printf("Item %d shelved at %s (status %s).\n",
			result.Item.ID, result.Item.Location, result.Item.Status)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: summary, apply-cog, delete-cog, intake, locate", args[0])
	}
}

func printSummary(summary *core.InventorySummary, locations []core.LocationCount) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 52))
	fmt.Printf("  %-48s\n", "INVENTORY SUMMARY")
	fmt.Println(strings.Repeat("=", 52))
	fmt.Printf("  %-20s %10s\n", "STATUS", "ITEMS")
	fmt.Println(strings.Repeat("-", 52))
	for _, status := range core.AllStatuses {
		fmt.Printf("  %-20s %10d\n", status, summary.StatusCounts[status])
	}
	fmt.Println(strings.Repeat("-", 52))
	fmt.Printf("  %-20s %10d\n", "Total", summary.TotalItems)
	fmt.Printf("  %-20s %10d\n", "On hand", summary.OnHandItems)
	fmt.Printf("  %-20s %10s\n", "On-hand cost", money(summary.OnHandCostMinor))

	if len(locations) > 0 {
		fmt.Println(strings.Repeat("=", 52))
		fmt.Printf("  %-20s %10s\n", "LOCATION", "ITEMS")
		fmt.Println(strings.Repeat("-", 52))
		for _, loc := range locations {
			fmt.Printf("  %-20s %10d\n", loc.Location, loc.ItemCount)
		}
	}
	fmt.Println(strings.Repeat("=", 52))
}

// money renders minor units as a fixed two-decimal amount.
func money(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}
