package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nathanvale/vtm/internal/tasks"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `Lists tasks in declared order. --filter narrows by field
(status, source, id); --sort orders by id, status, or title.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("filter", "", "Filter as field=value (fields: status, source, id)")
	listCmd.Flags().String("sort", "", "Sort field: id, status, or title")
}

func runList(cmd *cobra.Command, args []string) error {
	filter, _ := cmd.Flags().GetString("filter")
	sortField, _ := cmd.Flags().GetString("sort")

	_, store, err := openStore()
	if err != nil {
		return err
	}

	m, err := store.Load()
	if err != nil {
		return err
	}

	list := m.Tasks
	if filter != "" {
		list, err = applyFilter(list, filter)
		if err != nil {
			return err
		}
	}

	if sortField != "" {
		if err := applySort(list, sortField); err != nil {
			return err
		}
	}

	if len(list) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	for _, t := range list {
		deps := ""
		if len(t.Dependencies) > 0 {
			deps = " <- " + strings.Join(t.Dependencies, ", ")
		}
		fmt.Printf("  %-10s %-12s %s%s\n", t.ID, t.Status, t.Title, deps)
	}
	return nil
}

func applyFilter(list []tasks.Task, filter string) ([]tasks.Task, error) {
	field, value, ok := strings.Cut(filter, "=")
	if !ok {
		return nil, fmt.Errorf("invalid filter %q: want field=value", filter)
	}

	var pick func(t tasks.Task) string
	switch field {
	case "status":
		pick = func(t tasks.Task) string { return t.Status }
	case "source":
		pick = func(t tasks.Task) string { return t.Source }
	case "id":
		pick = func(t tasks.Task) string { return t.ID }
	default:
		return nil, fmt.Errorf("invalid filter field %q (want status, source, or id)", field)
	}

	var out []tasks.Task
	for _, t := range list {
		if pick(t) == value {
			out = append(out, t)
		}
	}
	return out, nil
}

func applySort(list []tasks.Task, field string) error {
	var less func(i, j int) bool
	switch field {
	case "id":
		less = func(i, j int) bool { return list[i].ID < list[j].ID }
	case "status":
		less = func(i, j int) bool { return list[i].Status < list[j].Status }
	case "title":
		less = func(i, j int) bool { return list[i].Title < list[j].Title }
	default:
		return fmt.Errorf("invalid sort field %q (want id, status, or title)", field)
	}
	sort.SliceStable(list, less)
	return nil
}
