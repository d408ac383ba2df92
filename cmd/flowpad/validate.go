package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowpad/flowpad/pkg/graph"
	"github.com/flowpad/flowpad/pkg/log"
	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/registry"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check a workflow document without running it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow document",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			return runValidate(command.String("file"))
		},
	}
}

// loadDocument reads a workflow document and runs it through the same
// structural gate the import endpoint uses.
func loadDocument(path string) (*models.WorkflowDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	document, problems := graph.ParseDocument(data, registry.NewRegistry(log.WithModule("cli")))
	if len(problems) > 0 {
		for _, problem := range problems {
			fmt.Fprintln(os.Stderr, "error:", problem)
		}

		return nil, fmt.Errorf("%s is not a valid workflow document", path)
	}

	return document, nil
}

func runValidate(path string) error {
	document, err := loadDocument(path)
	if err != nil {
		return err
	}

	result := graph.ValidateWorkflow(document.Nodes, document.Edges)

	for _, finding := range result.Errors {
		fmt.Println("error:", finding)
	}

	for _, finding := range result.Warnings {
		fmt.Println("warning:", finding)
	}

	if !result.Valid {
		return fmt.Errorf("%s failed validation", path)
	}

	fmt.Printf("%s is valid (%d nodes, %d edges)\n", path, len(document.Nodes), len(document.Edges))

	return nil
}
