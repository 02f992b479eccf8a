package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	density "solution-density"
	"solution-density/internal/config"
)

func newEvalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <nacl|sucrose> [mass_of_H2O mass_of_solute [temperature_in_Celsius]]",
		Short: "Compute the density of a solution",
		Long: `Fits the solute's reference table and evaluates it for the given masses.
The temperature is required for nacl. Without masses the values are read
from stdin.`,
		Example: `  density eval nacl 10.416 1.013 37
  density eval sucrose 10.416 1.013`,
		Args: cobra.RangeArgs(1, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseSoluteArg(args)
			if err != nil {
				return err
			}

			var q density.Query
			if len(args) == 1 {
				q, err = promptQuery(cmd.InOrStdin(), cmd.ErrOrStderr(), s)
			} else {
				q, err = parseQuery(s, args[1:])
			}
			if err != nil {
				return err
			}

			res, err := a.fit(s)
			if err != nil {
				return err
			}
			est, err := density.Evaluate(s, res.Coefficients, q)
			if err != nil {
				return err
			}
			a.metrics.ObserveEvaluation(s.String(), est.Extrapolated)
			for _, c := range est.Caveats {
				a.logger.WithField("solute", s.String()).Warn(c)
			}

			out := cmd.OutOrStdout()
			if a.cfg.Output == config.OutputJSON {
				return writeJSON(out, est)
			}
			fmt.Fprintln(out, strconv.FormatFloat(est.Density, 'g', -1, 64))
			return nil
		},
	}
}

// parseQuery reads the positional arguments in the order
// mass_of_H2O mass_of_solute [temperature].
func parseQuery(s density.Solute, args []string) (density.Query, error) {
	model, err := s.Model()
	if err != nil {
		return density.Query{}, err
	}
	want, usage := 2, "mass_of_H2O mass_of_"+s.String()
	if model.Arity() == 2 {
		want, usage = 3, usage+" temperature_in_Celsius"
	}
	if len(args) < want {
		return density.Query{}, errors.Errorf("%s needs %d values (%s), got %d", s, want, usage, len(args))
	}

	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return density.Query{}, errors.Wrapf(err, "parsing %q", arg)
		}
		values[i] = v
	}

	q := density.Query{MassWater: values[0], MassSolute: values[1]}
	if len(values) == 3 {
		q.Temperature = density.Celsius(values[2])
	}
	return q, nil
}

// promptQuery asks for the masses (and the temperature for temperature
// dependent models) one line at a time. Prompts are only shown on a terminal.
func promptQuery(in io.Reader, prompts io.Writer, s density.Solute) (density.Query, error) {
	model, err := s.Model()
	if err != nil {
		return density.Query{}, err
	}
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		prompts = io.Discard
	}

	reader := bufio.NewReader(in)
	var q density.Query
	if q.MassWater, err = readFloat(reader, prompts, "Enter H2O mass: "); err != nil {
		return q, err
	}
	if q.MassSolute, err = readFloat(reader, prompts, fmt.Sprintf("Enter %s mass: ", soluteLabel(s))); err != nil {
		return q, err
	}
	if model.Arity() == 2 {
		t, err := readFloat(reader, prompts, "Enter temperature (C): ")
		if err != nil {
			return q, err
		}
		q.Temperature = density.Celsius(t)
	}
	return q, nil
}

func readFloat(r *bufio.Reader, prompts io.Writer, prompt string) (float64, error) {
	fmt.Fprint(prompts, prompt)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
		return 0, errors.Wrapf(err, "reading %q", strings.TrimSuffix(prompt, ": "))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, errors.Wrap(err, "please enter a number")
	}
	return v, nil
}

func soluteLabel(s density.Solute) string {
	if s == density.NaCl {
		return "NaCl"
	}
	return s.String()
}
