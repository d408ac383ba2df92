package main

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/flowpad/flowpad/pkg/log"
	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/workflow"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a workflow document and print the run log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow document",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Pacing delay between node executions (0 runs at full speed)",
				Value: 0,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			return runDocument(ctx, command.String("file"), command.Duration("delay"))
		},
	}
}

func runDocument(ctx context.Context, path string, delay time.Duration) error {
	document, err := loadDocument(path)
	if err != nil {
		return err
	}

	target := &models.Workflow{
		ID:       "local",
		Name:     path,
		Nodes:    document.Nodes,
		Edges:    document.Edges,
		Viewport: document.Viewport,
	}

	executor := workflow.NewExecutor(log.WithModule("cli"), workflow.WithPacingDelay(delay))

	result, err := executor.Execute(ctx, target)
	if err != nil {
		return err
	}

	for _, entry := range result.Entries {
		line := fmt.Sprintf("[%s] %s (%s)", entry.Status, entry.NodeName, entry.NodeID)
		if entry.Message != "" {
			line += ": " + entry.Message
		}

		fmt.Println(line)
	}

	duration := result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond)
	fmt.Printf("Run %s %s in %s (%d entries)\n", result.ID, result.Status, duration, len(result.Entries))

	if result.Status != models.RunStatusCompleted {
		return fmt.Errorf("run did not complete: %s", result.Status)
	}

	return nil
}
