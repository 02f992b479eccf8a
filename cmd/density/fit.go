package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	density "solution-density"
	"solution-density/internal/config"
)

func newFitCmd(a *app) *cobra.Command {
	var withGrid bool
	cmd := &cobra.Command{
		Use:   "fit <nacl|sucrose>",
		Short: "Fit the reference table and print the equation",
		Long: `Fits the solute's reference table and prints the fitted equation, where r is
the mass ratio (mass of solute / mass of water) and t the temperature in °C,
followed by the largest absolute difference between table and fit.`,
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
			if !withGrid {
				res.Grid = nil
			}
			return writeFit(cmd.OutOrStdout(), a.cfg.Output, s, res)
		},
	}
	cmd.Flags().BoolVar(&withGrid, "grid", false, "include the table/fit grid in JSON output")
	return cmd
}

func writeFit(w io.Writer, output string, s density.Solute, res density.FitResult) error {
	if output == config.OutputJSON {
		return writeJSON(w, res)
	}
	model, err := s.Model()
	if err != nil {
		return err
	}
	equation, err := model.Equation(res.Coefficients)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, equation)
	fmt.Fprintf(w, "Max diff = %.4g\n", res.MaxResidual)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
