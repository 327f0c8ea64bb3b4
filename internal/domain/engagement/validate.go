package engagement

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the rules every consumer of an Engagement relies on. All
// violations are reported together.
func Validate(e *Engagement) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidEngagement}, args...)...))
	}

	if len(e.Slides) == 0 {
		add("no slides")
	}
	seen := make(map[string]struct{}, len(e.Slides))
	for i, s := range e.Slides {
		name := fmt.Sprintf("slide %d (%s)", i, s.ID)
		if strings.TrimSpace(s.ID) == "" {
			add("slide %d: empty id", i)
		} else if _, dup := seen[s.ID]; dup {
			add("%s: duplicate id", name)
		}
		seen[s.ID] = struct{}{}
		if strings.TrimSpace(s.Title) == "" {
			add("%s: empty title", name)
		}
		if s.Layout == nil {
			add("%s: missing layout", name)
			continue
		}
		for _, msg := range Visit[[]string](s.Layout, validator{}) {
			add("%s: %s", name, msg)
		}
	}
	return errors.Join(errs...)
}

// Warnings lists suspicious but accepted content, such as funnels whose
// stages grow.
func (e *Engagement) Warnings() []string {
	var out []string
	for _, s := range e.Slides {
		f, ok := s.Layout.(Funnel)
		if !ok {
			continue
		}
		for i := 1; i < len(f.Stages); i++ {
			if f.Stages[i].Value > f.Stages[i-1].Value {
				out = append(out, fmt.Sprintf("slide %s: funnel stage %q exceeds %q", s.ID, f.Stages[i].Label, f.Stages[i-1].Label))
			}
		}
	}
	return out
}

type validator struct{}

func (validator) KPIRow(r KPIRow) []string {
	var out []string
	if len(r.KPIs) == 0 {
		out = append(out, "kpi-row has no kpis")
	}
	for _, k := range r.KPIs {
		if k.Previous != nil && *k.Previous == 0 {
			out = append(out, fmt.Sprintf("kpi %q: previousValue must not be zero", k.Label))
		}
	}
	if r.Live != nil && r.Live.Refresh <= 0 {
		out = append(out, fmt.Sprintf("live readout %q: refresh must be positive", r.Live.Label))
	}
	return out
}

func (validator) Chart(c Chart) []string {
	if len(c.Points) == 0 {
		return []string{"chart has no data"}
	}
	return nil
}

func (validator) Funnel(f Funnel) []string {
	if len(f.Stages) == 0 {
		return []string{"funnel has no stages"}
	}
	var out []string
	for i, s := range f.Stages {
		if s.Value < 0 {
			out = append(out, fmt.Sprintf("stage %q: negative value", s.Label))
		}
		if i > 0 && f.Stages[i-1].Value == 0 {
			out = append(out, fmt.Sprintf("stage %q: previous stage is zero", s.Label))
		}
	}
	return out
}

func (validator) Comparison(c Comparison) []string {
	if len(c.Items) == 0 {
		return []string{"comparison has no items"}
	}
	var out []string
	for _, it := range c.Items {
		if it.Previous == 0 {
			out = append(out, fmt.Sprintf("item %q: previous must not be zero", it.Label))
		}
		if !it.Format.Numeric() {
			out = append(out, fmt.Sprintf("item %q: format must be numeric", it.Label))
		}
	}
	return out
}

func (validator) Table(t Table) []string {
	if len(t.Columns) == 0 {
		return []string{"table has no columns"}
	}
	var out []string
	keys := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Key == "" {
			out = append(out, "column with empty key")
			continue
		}
		if _, dup := keys[c.Key]; dup {
			out = append(out, fmt.Sprintf("duplicate column %q", c.Key))
		}
		keys[c.Key] = struct{}{}
	}
	return out
}

func (validator) Narrative(n Narrative) []string {
	if strings.TrimSpace(n.Text) == "" {
		return []string{"narrative is empty"}
	}
	return nil
}

func (validator) Custom(Custom) []string { return nil }
