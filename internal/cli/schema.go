package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/ppiankov/quire/internal/cluster"
	"github.com/ppiankov/quire/internal/model"
	"github.com/ppiankov/quire/internal/pipeline"
	"github.com/ppiankov/quire/internal/store"
)

// schemaTargets maps a schema name to a zero value of the documented type
var schemaTargets = map[string]any{
	"research":    &model.Research{},
	"outline":     &pipeline.OutlineResult{},
	"draft-order": &[]model.OrderedSection{},
	"clusters":    &cluster.Result{},
	"assignment":  &model.AssignmentBatch{},
	"import":      &store.ImportBundle{},
}

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema [name]",
	Short: "Print the JSON schema of an input or output document",
	Long: `Schema prints the JSON schema of the documents quire reads and writes,
so other tools can validate them.

Names: ` + strings.Join(schemaNames(), ", ") + ` (default: research)

Example:
  quire schema research > research.schema.json
  quire schema import`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "research"
		if len(args) == 1 {
			name = args[0]
		}

		schema, err := schemaFor(name)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(schema)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func schemaFor(name string) (*jsonschema.Schema, error) {
	target, ok := schemaTargets[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s (supported: %s)", name, strings.Join(schemaNames(), ", "))
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	return reflector.Reflect(target), nil
}

func schemaNames() []string {
	names := make([]string, 0, len(schemaTargets))
	for name := range schemaTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
