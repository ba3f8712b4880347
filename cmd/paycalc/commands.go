package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/pay-engine/awards"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/payroll/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "paycalc",
		Short:         "Award pay calculator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("paycalc {{.Version}}\n")
	root.AddCommand(newCalculateCmd(), newPeriodCmd())
	return root
}

// =============================================================================
// CALCULATE
// =============================================================================

type calculateOpts struct {
	guideFiles   []string
	guideID      string
	preset       string
	rate         string
	fyStart      int
	tz           string
	start        string
	end          string
	breaks       []string
	jurisdiction string
	periodType   string
	weekStart    string
	output       string
}

func newCalculateCmd() *cobra.Command {
	var o calculateOpts

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Price one shift under a pay guide",
		Long: `Price one shift under a pay guide.

Times are RFC 3339 instants or local wall-clock times ("2006-01-02T15:04")
in --tz. Break times may be given as HH:MM on the shift's start date; a
break time earlier than the shift start falls on the following day.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&o.guideFiles, "guide", nil, "Guide document (.json/.yaml); repeatable")
	f.StringVar(&o.guideID, "guide-id", "", "Use this guide instead of the one in force at --start")
	f.StringVar(&o.preset, "preset", "", "Built-in award preset ("+strings.Join(awards.PresetNames(), ", ")+")")
	f.StringVar(&o.rate, "rate", "25.00", "Base rate for --preset")
	f.IntVar(&o.fyStart, "fy", 0, "Financial year start for --preset (default: year of --start's FY)")
	f.StringVar(&o.tz, "tz", awards.Timezone, "Zone for local wall-clock times")
	f.StringVar(&o.start, "start", "", "Shift start")
	f.StringVar(&o.end, "end", "", "Shift end")
	f.StringArrayVar(&o.breaks, "break", nil, "Unpaid break as start/end; repeatable")
	f.StringVar(&o.jurisdiction, "jurisdiction", "", "State or territory for public holidays")
	f.StringVar(&o.periodType, "period-type", "", "Warn when this pay period leaves the guide's window")
	f.StringVar(&o.weekStart, "week-start", "monday", "First day of weekly and fortnightly periods")
	f.StringVarP(&o.output, "output", "o", "table", "Output format: table or json")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	cmd.MarkFlagsMutuallyExclusive("guide", "preset")

	return cmd
}

func runCalculate(ctx context.Context, out io.Writer, o calculateOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.output != "table" && o.output != "json" {
		return fmt.Errorf("unknown output format %q", o.output)
	}
	loc, err := payroll.LoadZone(o.tz)
	if err != nil {
		return err
	}

	shift, err := parseShift(o.start, o.end, o.breaks, loc)
	if err != nil {
		return err
	}

	guides, err := loadGuides(o, shift.Start.In(loc))
	if err != nil {
		return err
	}
	var guide *payroll.PayGuide
	if o.guideID != "" {
		guide, err = guides.GetGuide(ctx, payroll.GuideID(o.guideID))
	} else {
		guide, err = guides.GuideAt(ctx, shift.Start)
	}
	if err != nil {
		return err
	}

	var opts []payroll.CalcOption
	if o.jurisdiction != "" {
		opts = append(opts, payroll.WithJurisdiction(o.jurisdiction))
	}
	if o.periodType != "" {
		pt, err := payroll.ParsePeriodType(o.periodType)
		if err != nil {
			return err
		}
		ws, err := payroll.ParseWeekday(o.weekStart)
		if err != nil {
			return err
		}
		opts = append(opts, payroll.WithPeriodCheck(payroll.PeriodConfig{Type: pt, WeekStart: ws}))
	}

	res, err := payroll.Calculate(shift, *guide, opts...)
	if err != nil {
		return err
	}

	if o.output == "json" {
		return writeResultJSON(out, guide.ID, res)
	}
	return writeResultTable(out, guide.ID, res)
}

// loadGuides fills an in-memory store from files or a preset. With
// neither, the retail preset is used.
func loadGuides(o calculateOpts, start time.Time) (*store.Memory, error) {
	f := factory.NewGuideFactory()
	mem := store.NewMemory()

	if len(o.guideFiles) > 0 {
		for _, path := range o.guideFiles {
			g, err := f.ParseGuideFile(path)
			if err != nil {
				return nil, err
			}
			if err := mem.SaveGuide(context.Background(), *g); err != nil {
				return nil, err
			}
		}
		return mem, nil
	}

	name := o.preset
	if name == "" {
		name = "retail"
	}
	fy := o.fyStart
	if fy == 0 {
		fy = start.Year()
		if start.Month() < time.July {
			fy--
		}
	}
	doc, err := awards.Preset(name, fmt.Sprintf("%s-fy%d", name, fy+1), o.rate, fy)
	if err != nil {
		return nil, err
	}
	g, err := f.ParseGuide(doc)
	if err != nil {
		return nil, err
	}
	return mem, mem.SaveGuide(context.Background(), *g)
}

func parseShift(startStr, endStr string, breaks []string, loc *time.Location) (payroll.Shift, error) {
	start, err := parseWhen(startStr, loc, nil)
	if err != nil {
		return payroll.Shift{}, fmt.Errorf("--start: %w", err)
	}
	end, err := parseWhen(endStr, loc, nil)
	if err != nil {
		return payroll.Shift{}, fmt.Errorf("--end: %w", err)
	}
	shift := payroll.Shift{Start: start, End: end}

	for _, b := range breaks {
		from, to, ok := strings.Cut(b, "/")
		if !ok {
			return payroll.Shift{}, fmt.Errorf("--break %q: want start/end", b)
		}
		bs, err := parseWhen(from, loc, &start)
		if err != nil {
			return payroll.Shift{}, fmt.Errorf("--break %q: %w", b, err)
		}
		be, err := parseWhen(to, loc, &bs)
		if err != nil {
			return payroll.Shift{}, fmt.Errorf("--break %q: %w", b, err)
		}
		shift.Breaks = append(shift.Breaks, payroll.BreakPeriod{Start: bs, End: be})
	}
	return shift, shift.Validate()
}

var localLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02T15:04:05"}

// parseWhen accepts RFC 3339, a local date-time in loc, or (when after is
// set) a bare HH:MM placed at the first such wall-clock time not before
// after.
func parseWhen(s string, loc *time.Location, after *time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if after != nil {
		if tod, err := payroll.ParseTimeOfDay(s); err == nil {
			day := payroll.DateOf(after.In(loc))
			t := tod.On(day, loc)
			if t.Before(*after) {
				t = tod.On(day.AddDays(1), loc)
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

// =============================================================================
// PERIOD
// =============================================================================

type periodOpts struct {
	at         string
	periodType string
	tz         string
	weekStart  string
	anchor     string
	count      int
}

func newPeriodCmd() *cobra.Command {
	var o periodOpts

	cmd := &cobra.Command{
		Use:   "period",
		Short: "Resolve the pay period containing an instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriod(cmd.OutOrStdout(), o, time.Now())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.at, "at", "", "Instant or date to resolve (default: now)")
	f.StringVar(&o.periodType, "type", "weekly", "weekly, fortnightly or monthly")
	f.StringVar(&o.tz, "tz", "UTC", "Zone the instant is read in")
	f.StringVar(&o.weekStart, "week-start", "monday", "First day of weekly and fortnightly periods")
	f.StringVar(&o.anchor, "anchor", "", "A date whose week starts a fortnight")
	f.IntVar(&o.count, "count", 1, "Number of consecutive periods to print")

	return cmd
}

func runPeriod(out io.Writer, o periodOpts, now time.Time) error {
	if o.count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	loc, err := payroll.LoadZone(o.tz)
	if err != nil {
		return err
	}

	ref := now
	if o.at != "" {
		if d, err := payroll.ParseLocalDate(o.at); err == nil {
			ref = d.Midnight(loc)
		} else if ref, err = parseWhen(o.at, loc, nil); err != nil {
			return fmt.Errorf("--at: %w", err)
		}
	}

	pt, err := payroll.ParsePeriodType(o.periodType)
	if err != nil {
		return err
	}
	ws, err := payroll.ParseWeekday(o.weekStart)
	if err != nil {
		return err
	}
	pc := payroll.PeriodConfig{Type: pt, WeekStart: ws}
	opts := []payroll.PeriodOption{payroll.WithWeekStart(ws)}
	if o.anchor != "" {
		a, err := payroll.ParseLocalDate(o.anchor)
		if err != nil {
			return fmt.Errorf("--anchor: %w", err)
		}
		pc.Anchor = &a
		opts = append(opts, payroll.WithAnchor(a))
	}

	p, err := payroll.ResolvePayPeriodRange(ref, pt, o.tz, opts...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSTART\tEND\tDAYS")
	for i := 0; i < o.count; i++ {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", pt, p.Start, p.End, len(p.Days()))
		p = pc.Next(p)
	}
	return tw.Flush()
}

// =============================================================================
// OUTPUT
// =============================================================================

type penaltyLine struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Rules      []string `json:"rule_ids"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Hours      string   `json:"hours"`
	Multiplier string   `json:"multiplier"`
	Pay        string   `json:"pay"`
}

type resultOutput struct {
	GuideID     string        `json:"guide_id"`
	TotalHours  string        `json:"total_hours"`
	BasePay     string        `json:"base_pay"`
	OvertimePay string        `json:"overtime_pay"`
	PenaltyPay  string        `json:"penalty_pay"`
	TotalPay    string        `json:"total_pay"`
	Penalties   []penaltyLine `json:"applied_penalties"`
	Warnings    []string      `json:"warnings"`
}

func toOutput(id payroll.GuideID, res payroll.PayCalculationResult) resultOutput {
	out := resultOutput{
		GuideID:     string(id),
		TotalHours:  res.TotalHours.String(),
		BasePay:     res.Breakdown.BasePay.StringFixed(payroll.MoneyPlaces),
		OvertimePay: res.Breakdown.OvertimePay.StringFixed(payroll.MoneyPlaces),
		PenaltyPay:  res.Breakdown.PenaltyPay.StringFixed(payroll.MoneyPlaces),
		TotalPay:    res.Breakdown.TotalPay.StringFixed(payroll.MoneyPlaces),
		Penalties:   make([]penaltyLine, len(res.AppliedPenalties)),
		Warnings:    append([]string{}, res.Warnings...),
	}
	for i, ap := range res.AppliedPenalties {
		rules := make([]string, len(ap.RuleIDs))
		for j, r := range ap.RuleIDs {
			rules[j] = string(r)
		}
		out.Penalties[i] = penaltyLine{
			Name:       ap.Name,
			Kind:       string(ap.Kind),
			Rules:      rules,
			Start:      ap.Start.Format(time.RFC3339),
			End:        ap.End.Format(time.RFC3339),
			Hours:      ap.Hours.String(),
			Multiplier: ap.Multiplier.String(),
			Pay:        ap.Pay.StringFixed(payroll.MoneyPlaces),
		}
	}
	return out
}

func writeResultJSON(w io.Writer, id payroll.GuideID, res payroll.PayCalculationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toOutput(id, res))
}

func writeResultTable(w io.Writer, id payroll.GuideID, res payroll.PayCalculationResult) error {
	o := toOutput(id, res)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Guide:\t%s\n", o.GuideID)
	fmt.Fprintf(tw, "Hours:\t%s\n", o.TotalHours)
	fmt.Fprintf(tw, "Base:\t%s\n", o.BasePay)
	fmt.Fprintf(tw, "Penalty:\t%s\n", o.PenaltyPay)
	fmt.Fprintf(tw, "Overtime:\t%s\n", o.OvertimePay)
	fmt.Fprintf(tw, "Total:\t%s\n", o.TotalPay)

	if len(o.Penalties) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "RULE\tKIND\tFROM\tTO\tHOURS\tx\tPAY")
		for _, p := range o.Penalties {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", p.Name, p.Kind, p.Start, p.End, p.Hours, p.Multiplier, p.Pay)
		}
	}
	for _, warn := range o.Warnings {
		fmt.Fprintf(tw, "\nwarning: %s\n", warn)
	}
	return tw.Flush()
}
