// Package main is the entry point for the go-pranalyzer CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/mrz1836/go-pranalyzer/internal/cli"
	"github.com/mrz1836/go-pranalyzer/internal/output"
)

// errPanicRecovered is returned when a panic is recovered during application execution.
var errPanicRecovered = errors.New("panic recovered")

func main() {
	app := NewApp()
	if err := app.Run(os.Args[1:]); err != nil {
		// Error already displayed by Run
		os.Exit(1)
	}
}

// App represents the main application with testable components
type App struct {
	outputHandler OutputHandler
	cliExecutor   CLIExecutor
}

// OutputHandler defines interface for output operations
type OutputHandler interface {
	Init()
	Error(msg string)
}

// CLIExecutor defines interface for CLI execution
type CLIExecutor interface {
	Execute() error
}

// DefaultOutputHandler implements OutputHandler using the output package
type DefaultOutputHandler struct{}

// Init enables colored output.
func (d *DefaultOutputHandler) Init() {
	output.Init()
}

// Error prints msg to stderr.
func (d *DefaultOutputHandler) Error(msg string) {
	output.Error(msg)
}

// DefaultCLIExecutor implements CLIExecutor using the cli package
type DefaultCLIExecutor struct{}

// Execute runs the command tree.
func (d *DefaultCLIExecutor) Execute() error {
	return cli.ExecuteWithContext(context.Background())
}

// NewApp creates a new App instance with default implementations
func NewApp() *App {
	return &App{
		outputHandler: &DefaultOutputHandler{},
		cliExecutor:   &DefaultCLIExecutor{},
	}
}

// NewAppWithDependencies creates a new App instance with injectable dependencies.
// Panics if either dependency is nil to fail fast during initialization.
func NewAppWithDependencies(outputHandler OutputHandler, cliExecutor CLIExecutor) *App {
	if outputHandler == nil {
		panic("outputHandler must not be nil")
	}
	if cliExecutor == nil {
		panic("cliExecutor must not be nil")
	}
	return &App{
		outputHandler: outputHandler,
		cliExecutor:   cliExecutor,
	}
}

// Run executes the application. Cobra reads the arguments from os.Args,
// so args is currently unused.
func (a *App) Run(_ []string) (err error) {
	// Must be first to catch panics from Init as well
	defer func() {
		if r := recover(); r != nil {
			a.outputHandler.Error(fmt.Sprintf("Fatal error: %v\n%s", r, debug.Stack()))
			err = fmt.Errorf("%w: %v", errPanicRecovered, r)
		}
	}()

	a.outputHandler.Init()

	err = a.cliExecutor.Execute()
	if err != nil {
		a.outputHandler.Error(err.Error())
	}
	return err
}
