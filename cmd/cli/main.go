package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gridplan/internal/build"
	"gridplan/internal/logger"
	"gridplan/internal/scenario"
	"gridplan/internal/solution"
	"gridplan/internal/solve"
	"gridplan/internal/store"
)

func main() {
	defer logger.Close()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "solve":
		cmdSolve(os.Args[2:])
	case "inspect":
		cmdInspect(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli solve --scenario examples/utopia.yaml --out results/solution.csv")
	fmt.Println("  cli inspect --scenario examples/utopia.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - solve writes one CSV row per solution cell (series,coords,value)")
	fmt.Println("  - inspect builds the problem and reports its dimensions without solving")
}

func cmdSolve(args []string) {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	scenPath := fs.String("scenario", "", "Path to scenario YAML")
	outPath := fs.String("out", "results/solution.csv", "Output CSV path")
	outputs := fs.String("outputs", "", "Comma-separated series names (default: all)")
	dbPath := fs.String("db", "", "Optional SQLite path to persist the run")
	_ = fs.Parse(args)

	if *scenPath == "" {
		fmt.Println("--scenario is required")
		os.Exit(2)
	}

	f, u, ds, err := scenario.Load(*scenPath)
	if err != nil {
		panic(err)
	}
	b, err := build.NewBuilder(u, ds, logger.L())
	if err != nil {
		panic(err)
	}
	model, err := b.Build()
	if err != nil {
		panic(err)
	}
	prob, err := model.Problem()
	if err != nil {
		panic(err)
	}

	res, err := solve.NewHiGHS(logger.L()).Solve(context.Background(), prob)
	if err != nil {
		panic(err)
	}

	set, err := solution.NewExtractor(model, b.Cache()).Extract(res, splitNames(*outputs))
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	rows, err := writeSolutionCSV(*outPath, set)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %d rows to %s\n", rows, *outPath)
	fmt.Printf("Status=%s Objective=%.4f\n", set.Status, set.Objective)

	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			panic(err)
		}
		defer st.Close()
		id, err := st.SaveRun(context.Background(), f.Name, set)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Saved run %s to %s\n", id, *dbPath)
	}
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	scenPath := fs.String("scenario", "", "Path to scenario YAML")
	_ = fs.Parse(args)

	if *scenPath == "" {
		fmt.Println("--scenario is required")
		os.Exit(2)
	}

	_, u, ds, err := scenario.Load(*scenPath)
	if err != nil {
		panic(err)
	}
	b, err := build.NewBuilder(u, ds, logger.L())
	if err != nil {
		panic(err)
	}
	model, err := b.Build()
	if err != nil {
		panic(err)
	}
	prob, err := model.Problem()
	if err != nil {
		panic(err)
	}

	nonzeros := 0
	for _, r := range prob.Rows {
		nonzeros += len(r.Terms)
	}
	integers := 0
	for _, c := range prob.Cols {
		if c.Integer {
			integers++
		}
	}
	fmt.Printf("%-12s %d\n", "columns", len(prob.Cols))
	fmt.Printf("%-12s %d\n", "integer", integers)
	fmt.Printf("%-12s %d\n", "rows", len(prob.Rows))
	fmt.Printf("%-12s %d\n", "nonzeros", nonzeros)
}

func writeSolutionCSV(path string, set *solution.Set) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"series", "coords", "value"}); err != nil {
		return 0, err
	}
	rows := 0
	for _, name := range set.Names() {
		a := set.Values[name]
		space := a.Space()
		for i := 0; i < space.Size(); i++ {
			v, ok := a.At(i)
			if !ok {
				continue
			}
			rec := []string{name, space.CoordString(i), strconv.FormatFloat(v, 'g', -1, 64)}
			if err := w.Write(rec); err != nil {
				return rows, err
			}
			rows++
		}
	}
	w.Flush()
	return rows, w.Error()
}

func splitNames(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
