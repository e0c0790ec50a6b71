package placementctl

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/placement/internal/placement/configuration"
)

func (a *App) printPlans(plans []*ScenarioPlan) error {
	switch a.Params.Config.Output.Format {
	case configuration.YamlFormat:
		return printYaml(a.Out, plans)
	case configuration.JsonFormat:
		return printJson(a.Out, plans)
	default:
		var rows [][]string
		for _, plan := range plans {
			for _, instance := range plan.Instances {
				networks := make([]string, len(instance.Networks))
				for i, network := range instance.Networks {
					networks[i] = network.String()
				}
				rows = append(rows, []string{
					plan.Scenario,
					fmt.Sprintf("%s/%d", plan.Job, instance.Index),
					instance.Uuid,
					instance.Kind,
					instance.Az,
					strings.Join(networks, ", "),
				})
			}
		}
		printTable(a.Out, []string{"SCENARIO", "INSTANCE", "UUID", "KIND", "AZ", "NETWORKS"}, rows)
		return nil
	}
}

func (a *App) printValidations(validations []*ScenarioValidation) error {
	switch a.Params.Config.Output.Format {
	case configuration.YamlFormat:
		return printYaml(a.Out, validations)
	case configuration.JsonFormat:
		return printJson(a.Out, validations)
	default:
		var rows [][]string
		for _, validation := range validations {
			if len(validation.Networks) == 0 {
				rows = append(rows, []string{validation.Scenario, validation.Job, "", ""})
			}
			for _, network := range validation.Networks {
				rows = append(rows, []string{validation.Scenario, validation.Job, network.Network, strconv.Itoa(network.StaticIps)})
			}
		}
		printTable(a.Out, []string{"SCENARIO", "JOB", "NETWORK", "STATIC IPS"}, rows)
		return nil
	}
}

func printTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}

func printYaml(w io.Writer, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = w.Write(out)
	return errors.WithStack(err)
}

func printJson(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return errors.WithStack(err)
}
