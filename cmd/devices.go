package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"multishot/device"
)

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the available device profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadDependencies()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			renderDevices(cmd.OutOrStdout(), device.Default(), cfg.Scope())
			return nil
		},
	}
}

// renderDevices prints the registry, marking the profiles --all-devices
// expands to under scope.
func renderDevices(out io.Writer, registry *device.Registry, scope device.Scope) {
	selected := make(map[string]bool)
	for _, p := range registry.Select(scope) {
		selected[p.ID] = true
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Viewport", "Tier", "Alias Of", "All Devices"})
	for _, p := range registry.All() {
		all := ""
		if selected[p.ID] {
			all = "yes"
		}
		t.AppendRow(table.Row{p.ID, p.DisplayName, p.Size(), string(p.Tier), p.AliasOf, all})
	}
	t.SetCaption("all-devices scope: %s", scope)
	t.Render()
}
