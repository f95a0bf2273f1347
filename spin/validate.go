package spin

import (
	"github.com/go-playground/validator/v10"
)

// validate carries the cross-field rules the struct tags cannot express:
// index ranges, field lengths and finiteness of strengths.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateIsing, IsingModel{})
	v.RegisterStructValidation(validatePotts, PottsModel{})
	v.RegisterStructValidation(validateQuantumIsing, QuantumIsingModel{})
	return v
}

func validateIsing(sl validator.StructLevel) {
	m := sl.Current().Interface().(IsingModel)
	if len(m.ExternalField) != 0 && len(m.ExternalField) != m.SpinCount {
		sl.ReportError(m.ExternalField, "ExternalField", "external_field", "len", "")
	}
	for _, h := range m.ExternalField {
		if !finite(h) {
			sl.ReportError(m.ExternalField, "ExternalField", "external_field", "finite", "")
			break
		}
	}
	reportCouplings(sl, m.Interaction, m.SpinCount)
}

func validatePotts(sl validator.StructLevel) {
	m := sl.Current().Interface().(PottsModel)
	if !finite(m.Coupling) {
		sl.ReportError(m.Coupling, "Coupling", "interaction_strength", "finite", "")
	}
	for _, e := range m.Edges {
		if !siteInRange(e.I, m.Sites) || !siteInRange(e.J, m.Sites) || e.I == e.J {
			sl.ReportError(e, "Edges", "interaction", "siterange", "")
		}
	}
	for _, f := range m.ExternalField {
		if !siteInRange(f.Site, m.Sites) || !siteInRange(f.State, m.States) {
			sl.ReportError(f, "ExternalField", "external_field", "siterange", "")
		}
		if !finite(f.Strength) {
			sl.ReportError(f, "ExternalField", "external_field", "finite", "")
		}
	}
}

func validateQuantumIsing(sl validator.StructLevel) {
	m := sl.Current().Interface().(QuantumIsingModel)
	if !finite(m.ExternalX) {
		sl.ReportError(m.ExternalX, "ExternalX", "external_field_x", "finite", "")
	}
	if !finite(m.ExternalZ) {
		sl.ReportError(m.ExternalZ, "ExternalZ", "external_field_z", "finite", "")
	}
	reportCouplings(sl, m.Interaction, m.SpinCount)
}

func reportCouplings(sl validator.StructLevel, cs []Coupling, n int) {
	for _, c := range cs {
		if !siteInRange(c.I, n) || !siteInRange(c.J, n) || c.I == c.J {
			sl.ReportError(c, "Interaction", "interaction", "spinrange", "")
		}
		if !finite(c.Strength) {
			sl.ReportError(c, "Interaction", "interaction", "finite", "")
		}
	}
}

func siteInRange(i, n int) bool {
	return i >= 0 && i < n
}
