// cmd/tools/stepgraph-export/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"onboarding-orchestrator/internal/onboarding/stepgraph"
	"onboarding-orchestrator/pkg/registry"
)

const defaultCatalogPath = "configs/step-catalog.json"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)

	exportPath := exportCmd.String("path", defaultCatalogPath, "Path to write the step catalog")
	version := exportCmd.String("version", "1.0.0", "Catalog version")

	checkPath := checkCmd.String("path", defaultCatalogPath, "Path of the committed step catalog")

	showRole := showCmd.String("role", "", "Role to show (worker, sponsor, agency); empty shows all")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	graph := stepgraph.Default()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		prev, _ := registry.LoadCatalog(*exportPath)
		next := graph.Catalog(*version)
		if err := registry.SaveCatalog(*exportPath, next); err != nil {
			fmt.Printf("Error writing catalog: %v\n", err)
			os.Exit(1)
		}
		for _, change := range registry.Diff(prev, next) {
			fmt.Println(change)
		}
		fmt.Printf("Wrote step catalog to %s\n", *exportPath)

	case "check":
		checkCmd.Parse(os.Args[2:])
		committed, err := registry.LoadCatalog(*checkPath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		changes := registry.Diff(committed, graph.Catalog(committed.Version))
		if len(changes) > 0 {
			fmt.Printf("Step catalog %s is stale:\n  %s\n", *checkPath, strings.Join(changes, "\n  "))
			os.Exit(1)
		}
		fmt.Println("Step catalog is up to date.")

	case "show":
		showCmd.Parse(os.Args[2:])
		if err := show(graph, *showRole); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func show(graph *stepgraph.Graph, role string) error {
	roles := stepgraph.Roles()
	if role != "" {
		r, err := stepgraph.ParseRole(role)
		if err != nil {
			return err
		}
		roles = []stepgraph.Role{r}
	}

	catalog := graph.Catalog("")
	for _, r := range roles {
		fmt.Printf("%s:\n", r)
		for _, rc := range catalog.Roles {
			if rc.Role != string(r) {
				continue
			}
			for _, s := range rc.Steps {
				var flags []string
				if s.Conditional {
					flags = append(flags, "conditional")
				}
				if s.Skippable {
					flags = append(flags, "skippable")
				}
				if s.HasEnterHook {
					flags = append(flags, "on-enter")
				}
				fmt.Printf("  %2d. %-24s %-28s %s\n", s.Position+1, s.ID, s.ComponentKey, strings.Join(flags, ","))
			}
		}
	}
	return nil
}

func help() {
	fmt.Println("Usage: stepgraph-export <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  export    Write the step catalog consumed by the step UI")
	fmt.Println("            -path <file> -version <semver>")
	fmt.Println("  check     Fail when the committed catalog no longer matches the step tables")
	fmt.Println("            -path <file>")
	fmt.Println("  show      Print the step tables")
	fmt.Println("            -role <worker|sponsor|agency>")
	fmt.Println("  help      Show this help message")
}
