package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/catalogcrawl/internal/plan"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

var (
	coursesPath  string
	programsPath string
	planJSON     bool
)

// planCmd creates the "plan" subcommand.
func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <program> [program]",
		Short: "Resolve degree plans from crawled data",
		Long: `Resolve the required courses of one program, or the smallest combined
course list of two programs, from the JSON files written by "crawl".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPlan,
	}

	cmd.Flags().StringVar(&coursesPath, "courses", "", "courses JSON file (default from config)")
	cmd.Flags().StringVar(&programsPath, "programs", "", "programs JSON file (default from config)")
	cmd.Flags().BoolVar(&planJSON, "json", false, "print the result as JSON")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if coursesPath == "" {
		coursesPath = filepath.Join(cfg.Storage.OutputDir, cfg.Storage.CoursesFile)
	}
	if programsPath == "" {
		programsPath = filepath.Join(cfg.Storage.OutputDir, cfg.Storage.ProgramsFile)
	}

	var courses []types.CourseRecord
	if err := readJSONFile(coursesPath, &courses); err != nil {
		return err
	}
	var programs []types.ProgramRecord
	if err := readJSONFile(programsPath, &programs); err != nil {
		return err
	}

	idx := plan.NewIndex(courses)
	var plans []plan.Plan
	for _, name := range args {
		prog, ok := plan.FindProgram(programs, name)
		if !ok {
			return fmt.Errorf("program %q not found in %s", name, programsPath)
		}
		plans = append(plans, plan.Resolve(prog, idx))
	}

	result := struct {
		Plans    []plan.Plan   `json:"plans"`
		Combined []plan.Course `json:"combined,omitempty"`
		Hours    float64       `json:"hours"`
	}{Plans: plans, Hours: plans[0].Hours}
	if len(plans) == 2 {
		result.Combined, result.Hours = plan.MinimalHours(plans[0], plans[1])
	}

	if planJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, p := range plans {
		fmt.Printf("%s (%g hours)\n", p.Program, p.Hours)
		for _, c := range p.Courses {
			fmt.Printf("   %-10s %-40s %g\n", c.ID, c.Name, c.Hours)
		}
		fmt.Println()
	}
	if len(plans) == 2 {
		fmt.Printf("Combined: %d courses, %g hours\n", len(result.Combined), result.Hours)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
