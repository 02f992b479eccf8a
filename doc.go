// Package density fits empirical density tables of aqueous solutions to small
// polynomial models and evaluates the fitted models.
//
// Two reference systems are built in: sodium chloride, whose density depends
// on temperature and mass ratio,
//
//	density = a*t^2 + b*t + c*r^2 + d*r + e
//
// and sucrose, whose density depends on the mass ratio only,
//
//	density = c*r^2 + d*r + e
//
// where r = (mass of solute)/(mass of water), t is in °C and density is in g/mL.
//
// Fitting minimizes the sum of squared residuals over the reference table.
// The model is linear in its coefficients, so the default QR strategy solves
// the problem directly; NormalEquations and NelderMead are available as
// alternative strategies:
//
//	res, err := density.NewFitter(density.WithStrategy(density.QR{})).Fit(density.Sucrose)
//	if err != nil {
//		return err
//	}
//	est, err := density.Evaluate(density.Sucrose, res.Coefficients, density.Query{
//		MassSolute: 1.013,
//		MassWater:  10.416,
//	})
//
// Coefficients are recomputed on every run; nothing is cached or persisted.
package density
