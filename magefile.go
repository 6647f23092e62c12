//go:build mage

// Magefile for go-pranalyzer specific tasks
package main

import (
	"fmt"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "go-pranalyzer"
	mainPkg    = "./cmd/go-pranalyzer"
	cliPkg     = "github.com/mrz1836/go-pranalyzer/internal/cli"
)

// Test runs the unit tests
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-count=1", "./...")
}

// TestRace runs the unit tests with the race detector
func TestRace() error {
	fmt.Println("Running tests with the race detector...")
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Bench runs the benchmarks
func Bench() error {
	fmt.Println("Running benchmarks...")
	return sh.RunV("go", "test", "-run=^$", "-bench=.", "-benchmem",
		"-benchtime=100ms", "-timeout=20m", "./...")
}

// Build compiles the CLI with version information
func Build() error {
	mg.Deps(Test)

	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	version, err := sh.Output("git", "describe", "--tags", "--always")
	if err != nil {
		version = "dev"
	}

	ldflags := fmt.Sprintf("-s -w -X %s.version=%s -X %s.commit=%s -X %s.buildDate=%s",
		cliPkg, version, cliPkg, commit, cliPkg, time.Now().UTC().Format("2006-01-02_15:04:05_UTC"))

	fmt.Printf("Building %s %s...\n", binaryName, version)
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", "bin/"+binaryName, mainPkg)
}
