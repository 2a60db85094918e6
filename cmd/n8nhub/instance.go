package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/n8nhub/n8nhub/pkg/registry"
)

// NewInstanceCommand manages the configured n8n instances.
func NewInstanceCommand() *cli.Command {
	return &cli.Command{
		Name:    "instance",
		Aliases: []string{"i"},
		Usage:   "Manage configured n8n instances",
		Commands: []*cli.Command{
			newInstanceAddCommand(),
			newInstanceListCommand(),
			newInstanceEditCommand(),
			newInstanceRemoveCommand(),
		},
	}
}

func newInstanceAddCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Register a new n8n instance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Display name for the instance",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "url",
				Aliases:  []string{"u"},
				Usage:    "Base URL of the instance",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "api-key",
				Aliases:  []string{"k"},
				Usage:    "API key or bearer credential",
				Required: true,
				Sources:  cli.EnvVars("N8N_API_KEY"),
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Accent color shown next to the instance",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			instance, err := h.AddInstance(ctx, registry.AddRequest{
				Name:    command.String("name"),
				BaseURL: command.String("url"),
				APIKey:  command.String("api-key"),
				Color:   command.String("color"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added instance %s (%s)\n", instance.ID, instance.Name)

			return nil
		},
	}
}

func newInstanceListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List configured instances",
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

			for _, instance := range instances {
				status, err := h.InstanceStatus(ctx, instance.ID)
				if err != nil {
					return err
				}

				state := "unknown"

				switch {
				case status == nil:
				case status.Active:
					state = "online"
				default:
					state = "offline"
				}

				fmt.Printf("%-24s %-20s %-8s %s\n", instance.ID, instance.Name, state, instance.BaseURL)
			}

			return nil
		},
	}
}

func newInstanceEditCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Update an instance's name, API key, or color",
		ArgsUsage: "<instance-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "New display name",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Aliases: []string{"k"},
				Usage:   "New API key",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "New accent color",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("instance ID is required")
			}

			req := registry.UpdateRequest{}
			if command.IsSet("name") {
				name := command.String("name")
				req.Name = &name
			}

			if command.IsSet("api-key") {
				key := command.String("api-key")
				req.APIKey = &key
			}

			if command.IsSet("color") {
				color := command.String("color")
				req.Color = &color
			}

			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			instance, err := h.EditInstance(ctx, id, req)
			if err != nil {
				return err
			}

			fmt.Printf("Updated instance %s (%s)\n", instance.ID, instance.Name)

			return nil
		},
	}
}

func newInstanceRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Remove an instance and its cached workflows",
		ArgsUsage: "<instance-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("instance ID is required")
			}

			h, closer, err := newHub(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			if err := h.RemoveInstance(ctx, id); err != nil {
				return err
			}

			fmt.Printf("Removed instance %s\n", id)

			return nil
		},
	}
}
