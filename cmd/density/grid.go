package main

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	density "solution-density"
	"solution-density/internal/config"
)

func newGridCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "grid <nacl|sucrose>",
		Short: "Export table and fitted densities for plotting",
		Long: `Fits the solute's reference table and writes one row per measurement with
the independent variables, the table density, the fitted density and the
residual. Text output is CSV.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseSoluteArg(args)
			if err != nil {
				return err
			}
			res, err := a.fit(s)
			if err != nil {
				return err
			}
			if a.cfg.Output == config.OutputJSON {
				return writeJSON(cmd.OutOrStdout(), res.Grid)
			}
			return writeGridCSV(cmd.OutOrStdout(), s, res.Grid)
		},
	}
}

func writeGridCSV(w io.Writer, s density.Solute, grid []density.GridPoint) error {
	model, err := s.Model()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, model.Arity()+3)
	for _, v := range model.Variables() {
		header = append(header, v.Name)
	}
	header = append(header, "table_density", "fitted_density", "residual")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range grid {
		record := make([]string, 0, len(header))
		for _, x := range p.X {
			record = append(record, formatFloat(x))
		}
		record = append(record, formatFloat(p.Table), formatFloat(p.Fitted), formatFloat(p.Residual))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
