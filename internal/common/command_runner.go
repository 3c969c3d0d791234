package common

import (
	"context"
	"fmt"
	"time"

	"atspro/internal/errors"
)

// CreateInputFunc builds the AI input from the extracted file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc logs the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// AIOperationFunc runs one AI tool and returns what should be printed.
type AIOperationFunc[Input any] func(context.Context, Input) (any, error)

// RunAICommand reads the argument files, runs the operation and writes the
// formatted result to stdout or the configured output file.
func RunAICommand[Input any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	aiOperation AIOperationFunc[Input],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(cmdConfig.MaxFileSize, logger)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	logDetails(input, cmdConfig)

	start := time.Now()
	result, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}
	logger.Debug("AI operation finished", "elapsed", time.Since(start))

	return outputHandler.HandleOutput(result, cmdConfig)
}
