package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agentstation/regsync/internal/cmd/emoji"
	"github.com/agentstation/regsync/pkg/identity"
	"github.com/agentstation/regsync/pkg/reconciler"
	"github.com/agentstation/regsync/pkg/sync"
)

// OutcomesToTableData converts record outcomes to table rows. Wide output
// adds the remote id and each changed field.
func OutcomesToTableData(outcomes []reconciler.Outcome, wide bool) Data {
	headers := []string{"", "Identifier", "Name", "Action", "Message"}
	if wide {
		headers = append(headers, "Remote ID", "Changes")
	}

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		row := []string{
			actionSymbol(o),
			identity.Format(o.Identifier),
			o.Name,
			string(o.Action),
			o.Message,
		}
		if wide {
			row = append(row, o.RemoteID, strings.Join(o.Changes.Strings(), "\n"))
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

// ModulesToTableData converts module outcomes to table rows.
func ModulesToTableData(modules []reconciler.ModuleOutcome) Data {
	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		status := emoji.Success
		if !m.Success {
			status = emoji.Error
		}
		rows = append(rows, []string{
			status,
			identity.Format(m.Identifier),
			onOff(m.Decision.Federal),
			onOff(m.Decision.Services),
			strconv.FormatBool(m.Applied),
			m.Message,
		})
	}
	return Data{
		Headers:         []string{"", "Identifier", "Federal", "Services", "Applied", "Message"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignCenter, AlignLeft, AlignCenter, AlignCenter, AlignCenter, AlignLeft},
	}
}

// StatsToTableData converts run statistics to a two-column table.
func StatsToTableData(s sync.Stats, modules bool) Data {
	rows := [][]string{
		{"Total", strconv.Itoa(s.Total)},
		{"Created", strconv.Itoa(s.Created)},
		{"Updated", strconv.Itoa(s.Updated)},
		{"Unchanged", strconv.Itoa(s.NoChange)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Errors", strconv.Itoa(s.Errors)},
	}
	if modules {
		rows = append(rows,
			[]string{"Federal on/off", fmt.Sprintf("%d/%d", s.FederalEnabled, s.FederalDisabled)},
			[]string{"Services on/off", fmt.Sprintf("%d/%d", s.ServicesEnabled, s.ServicesDisabled)},
			[]string{"Module errors", strconv.Itoa(s.ModuleErrors)},
		)
	}
	return Data{
		Headers:         []string{"Metric", "Count"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// FormatResult writes a run result. Tables show the outcomes, the module
// phase when it ran, the totals and the summary line; JSON and YAML
// serialize the whole result.
func FormatResult(w io.Writer, result *sync.Result, format Format) error {
	if result == nil {
		return nil
	}
	if !format.Tabular() {
		return NewFormatter(format).Format(w, result)
	}

	table := NewFormatter(format)
	if len(result.Outcomes) > 0 {
		if err := table.Format(w, OutcomesToTableData(result.Outcomes, format == FormatWide)); err != nil {
			return err
		}
	}
	if len(result.Modules) > 0 {
		if err := table.Format(w, ModulesToTableData(result.Modules)); err != nil {
			return err
		}
	}
	if err := table.Format(w, StatsToTableData(result.Stats, len(result.Modules) > 0)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", summarySymbol(result), result.Summary())
	return err
}

func actionSymbol(o reconciler.Outcome) string {
	switch o.Action {
	case reconciler.ActionError:
		return emoji.Error
	case reconciler.ActionSkipped:
		return emoji.Optional
	case reconciler.ActionNoChange:
		return emoji.Success
	}
	if o.DryRun {
		return emoji.Info
	}
	return emoji.Success
}

func summarySymbol(r *sync.Result) string {
	switch {
	case r.Stats.Errors > 0 || r.Stats.ModuleErrors > 0:
		return emoji.Warning
	case r.DryRun:
		return emoji.Info
	}
	return emoji.Success
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
