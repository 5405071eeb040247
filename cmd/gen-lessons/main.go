// Command gen-lessons writes one starter lesson per supported scenario kind,
// using each kind's default parameters. Existing files with the same name are
// overwritten.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stepper/pkg/adapters/loam"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/scenario"
)

func main() {
	targetDir := "lessons/generated"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		fail(err)
	}
	fmt.Printf("Generating starter lessons in: %s\n", targetDir)

	catalog, err := loam.Open(targetDir)
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	for _, info := range scenario.Kinds() {
		lesson := domain.Lesson{
			ID:       "starter-" + string(info.Kind),
			Title:    info.Title,
			Scenario: domain.ScenarioSpec{Kind: info.Kind, Params: info.Defaults},
			Notes:    info.Description,
		}
		if err := catalog.Save(ctx, lesson); err != nil {
			fail(err)
		}
		fmt.Printf("  %s.md\n", lesson.ID)
	}

	fmt.Println("Done. Verify contents in", targetDir)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "gen-lessons:", err)
	os.Exit(1)
}
