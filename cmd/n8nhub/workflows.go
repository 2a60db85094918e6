package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/search"
)

// NewRefreshCommand re-aggregates workflows from all reachable instances.
func NewRefreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Fetch workflows from all reachable instances",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Re-probe instance reachability before fetching",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			result, err := h.RefreshWorkflows(ctx, command.Bool("force"))
			if err != nil {
				return err
			}

			fmt.Printf("Refreshed %d workflows\n", len(result.Items))

			for name, message := range result.Errors {
				fmt.Printf("  %s: %s\n", name, message)
			}

			return nil
		},
	}
}

// NewSearchCommand queries the unified workflow cache.
func NewSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search workflows across all instances",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Keep only workflows carrying this tag (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "instance",
				Aliases: []string{"i"},
				Usage:   "Keep only workflows from this instance ID (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "fuzzy",
				Usage: "Union fuzzy matches even when substring matches exist",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			items, err := h.Search(ctx, command.Args().First(), search.Options{
				Tags:        command.StringSlice("tag"),
				InstanceIDs: command.StringSlice("instance"),
				Escalate:    command.Bool("fuzzy"),
			})
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("No workflows found.")

				return nil
			}

			printItems(items)

			return nil
		},
	}
}

// NewToggleCommand flips the activation state of one workflow.
func NewToggleCommand() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Activate or deactivate a workflow by key (instance-id:workflow-id)",
		ArgsUsage: "<key>",
		Action: func(ctx context.Context, command *cli.Command) error {
			key := command.Args().First()
			if key == "" {
				return fmt.Errorf("workflow key is required")
			}

			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			item, err := h.Toggle(ctx, key)
			if err != nil {
				return err
			}

			state := "deactivated"
			if item.Active {
				state = "activated"
			}

			fmt.Printf("%s %q on %s\n", state, item.Title, item.InstanceName)

			return nil
		},
	}
}

// NewStatusCommand reports instance reachability.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show reachability of all instances",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "refresh",
				Aliases: []string{"r"},
				Usage:   "Probe all instances now instead of reading the cache",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			instances, err := h.ListInstances(ctx)
			if err != nil {
				return err
			}

			if len(instances) == 0 {
				fmt.Println("No instances configured.")

				return nil
			}

			if command.Bool("refresh") {
				if _, err := h.RefreshAllStatuses(ctx); err != nil {
					return err
				}
			}

			for _, instance := range instances {
				status, err := h.InstanceStatus(ctx, instance.ID)
				if err != nil {
					return err
				}

				switch {
				case status == nil:
					fmt.Printf("%-24s never probed\n", instance.ID)
				case status.Active:
					fmt.Printf("%-24s online  (checked %s)\n", instance.ID, status.LastChecked.Format("2006-01-02 15:04:05"))
				default:
					fmt.Printf("%-24s offline (%s)\n", instance.ID, status.Error)
				}
			}

			return nil
		},
	}
}

func printItems(items []models.WorkflowItem) {
	for _, item := range items {
		fmt.Printf("%-32s %-40s %s\n", item.Key, item.Title, item.Subtitle)
	}
}
