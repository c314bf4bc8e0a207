// Package report renders estimate and sweep reports for people: plain text for
// the terminal, Markdown and HTML for the web form.
package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"jugglerbayes/app"
	"jugglerbayes/domain/setting"
	"jugglerbayes/internal/posterior"
)

// IndeterminateMessage is shown instead of a posterior when the evidence is zero
const IndeterminateMessage = "Not enough information to discriminate settings, or the observation is extremely rare under every setting."

// FormatLikelihood renders a likelihood in scientific notation
func FormatLikelihood(v float64) string {
	return fmt.Sprintf("%.10e", v)
}

// FormatLogLikelihood renders a natural-log likelihood in the same notation as
// FormatLikelihood, for values below the float64 range
func FormatLogLikelihood(ln float64) string {
	if math.IsInf(ln, -1) || math.IsNaN(ln) {
		return FormatLikelihood(0)
	}
	log10 := ln / math.Ln10
	exp := math.Floor(log10)
	mant := math.Pow(10, log10-exp)
	if mant >= 9.9999995 {
		mant /= 10
		exp++
	}
	return fmt.Sprintf("%.6fe%+03d", mant, int64(exp))
}

// likelihood prefers the float64 value and falls back to its log when it underflowed
func likelihood(res *posterior.Result, l setting.Label) string {
	if v := res.Likelihoods[l]; v != 0 {
		return FormatLikelihood(v)
	}
	if ln, ok := res.LogLikelihoods[l]; ok {
		return FormatLogLikelihood(ln)
	}
	return FormatLikelihood(0)
}

// FormatPercent renders a probability as a percentage with two decimals
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatRate renders the observed rate, or N/A when no games were played
func FormatRate(r *app.EstimateReport) string {
	if r.Rate == nil {
		return "N/A (no games played)"
	}
	if r.Odds == nil {
		return fmt.Sprintf("%.4f", *r.Rate)
	}
	return fmt.Sprintf("%.4f (1/%.2f)", *r.Rate, *r.Odds)
}

// WriteText writes the terminal rendering of an estimate
func WriteText(w io.Writer, r *app.EstimateReport) error {
	res := r.Result
	var b strings.Builder

	fmt.Fprintln(&b, "--- Observation ---")
	fmt.Fprintf(&b, "Total games: %d G\n", res.Observation.Trials)
	fmt.Fprintf(&b, "Successes: %d\n", res.Observation.Successes)
	fmt.Fprintf(&b, "Observed rate: %s\n", FormatRate(r))

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "--- Likelihood per setting ---")
	for _, l := range r.Labels {
		fmt.Fprintf(&b, "%s likelihood: %s\n", l, likelihood(res, l))
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "--- Posterior per setting ---")
	if res.Indeterminate {
		fmt.Fprintf(&b, "WARNING: %s\n", IndeterminateMessage)
	} else {
		for _, l := range r.Labels {
			post, _ := res.Posterior(l)
			fmt.Fprintf(&b, "%s: %s\n", l, FormatPercent(post))
		}
		fmt.Fprintf(&b, "Most likely setting: %s\n", res.MAP)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders the estimate as a Markdown document with a table per section
func Markdown(r *app.EstimateReport) []byte {
	res := r.Result
	var b bytes.Buffer

	fmt.Fprintf(&b, "### Observation\n\n")
	fmt.Fprintf(&b, "- Total games: **%d**\n", res.Observation.Trials)
	fmt.Fprintf(&b, "- Successes: **%d**\n", res.Observation.Successes)
	fmt.Fprintf(&b, "- Observed rate: %s\n\n", FormatRate(r))

	if res.Indeterminate {
		fmt.Fprintf(&b, "> **Warning:** %s\n\n", IndeterminateMessage)
	} else {
		fmt.Fprintf(&b, "Most likely setting: **%s**\n\n", escape(res.MAP))
		ranked := res.Ranked()
		names := make([]string, len(ranked))
		for i, l := range ranked {
			names[i] = escape(l)
		}
		fmt.Fprintf(&b, "Ranking: %s\n\n", strings.Join(names, " &gt; "))
	}

	fmt.Fprintf(&b, "| Setting | Success probability | Likelihood | Posterior |\n")
	fmt.Fprintf(&b, "|---|---:|---:|---:|\n")
	for _, l := range r.Labels {
		cell := "-"
		if post, ok := res.Posterior(l); ok {
			cell = FormatPercent(post)
		}
		fmt.Fprintf(&b, "| %s | 1/%.2f | %s | %s |\n", escape(l), 1/r.Probabilities[l], likelihood(res, l), cell)
	}
	return b.Bytes()
}

// SweepMarkdown renders a sweep as a Markdown table
func SweepMarkdown(r *app.SweepReport) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "### Sweep over %d games\n\n", r.Trials)
	fmt.Fprintf(&b, "| Successes | Rate | Most likely | Posterior |\n")
	fmt.Fprintf(&b, "|---:|---:|---|---:|\n")
	for _, p := range r.Points {
		rate := "N/A"
		if r.Trials > 0 {
			rate = fmt.Sprintf("%.4f", float64(p.Successes)/float64(r.Trials))
		}
		if p.Indeterminate {
			fmt.Fprintf(&b, "| %d | %s | indeterminate | - |\n", p.Successes, rate)
			continue
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", p.Successes, rate, escape(p.MAP), FormatPercent(p.MAPPosterior))
	}
	return b.Bytes()
}

// WriteSweepText writes the terminal rendering of a sweep
func WriteSweepText(w io.Writer, r *app.SweepReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-8s %-14s %s\n", "successes", "rate", "most likely", "posterior")
	for _, p := range r.Points {
		rate := "N/A"
		if r.Trials > 0 {
			rate = fmt.Sprintf("%.4f", float64(p.Successes)/float64(r.Trials))
		}
		if p.Indeterminate {
			fmt.Fprintf(&b, "%-10d %-8s %-14s %s\n", p.Successes, rate, "indeterminate", "-")
			continue
		}
		fmt.Fprintf(&b, "%-10d %-8s %-14s %s\n", p.Successes, rate, p.MAP, FormatPercent(p.MAPPosterior))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML converts a Markdown rendering into an HTML fragment.
// Raw HTML in the source is dropped and links are limited to safe schemes.
func HTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML | html.Safelink})
	return markdown.ToHTML(md, p, renderer)
}

// markdownEscaper backslash-escapes characters that Markdown or HTML would interpret
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", "&lt;", ">", "&gt;", "&", "&amp;", "|", `\|`,
)

// escape makes a catalog-supplied label safe to place in Markdown
func escape(l setting.Label) string {
	return markdownEscaper.Replace(string(l))
}
